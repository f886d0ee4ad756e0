package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"github.com/deltatree/deltatree"
)

func readDocument(path string) (*deltatree.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read document")
	}
	var value interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &value)
	default:
		err = json.Unmarshal(data, &value)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return deltatree.FromValue(value)
}

func describeOp(op deltatree.Op) string {
	switch op := op.(type) {
	case deltatree.OpAddKey:
		return fmt.Sprintf("add key %q = %s", op.Key, op.Value)
	case deltatree.OpRemoveKey:
		return fmt.Sprintf("remove key %q", op.Key)
	case deltatree.OpPatchKey:
		return fmt.Sprintf("patch key %q", op.Key)
	case deltatree.OpInsert:
		return fmt.Sprintf("insert %s at %d", op.Value, op.Index)
	case deltatree.OpDelete:
		return fmt.Sprintf("delete element %d", op.Index)
	case deltatree.OpPatchIndex:
		return fmt.Sprintf("patch element %d", op.Index)
	case deltatree.OpReplace:
		return fmt.Sprintf("replace %s with %s", op.Old, op.New)
	case deltatree.OpEditText:
		return fmt.Sprintf("edit text (%d spans)", len(op.Edits))
	}
	return fmt.Sprintf("%#v", op)
}

func run(basePath, localPath, remotePath string) error {
	base, err := readDocument(basePath)
	if err != nil {
		return err
	}
	local, err := readDocument(localPath)
	if err != nil {
		return err
	}
	remote, err := readDocument(remotePath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	localPatch, err := deltatree.Diff(ctx, base, local)
	if err != nil {
		return err
	}
	remotePatch, err := deltatree.Diff(ctx, base, remote)
	if err != nil {
		return err
	}

	merged, conflicts, err := deltatree.Merge(base, localPatch, remotePatch)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	if err := encoder.Encode(merged.Value()); err != nil {
		return err
	}

	if len(conflicts) > 0 {
		if !isatty.IsTerminal(os.Stderr.Fd()) {
			color.NoColor = true
		}
		header := color.New(color.FgRed, color.Bold)
		for _, c := range conflicts {
			header.Fprintf(os.Stderr, "conflict at %s\n", c.Path)
			fmt.Fprintf(os.Stderr, "  local:  %s\n", describeOp(c.LocalOp))
			fmt.Fprintf(os.Stderr, "  remote: %s\n", describeOp(c.RemoteOp))
		}
		os.Exit(1)
	}
	return nil
}

func main() {
	if len(os.Args) != 4 {
		fmt.Printf("usage: dtmerge base.json local.json remote.json\n")
		return
	}

	err := run(os.Args[1], os.Args[2], os.Args[3])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
