package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
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

func readPatch(path string) (deltatree.Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read patch")
	}
	var patch deltatree.Patch
	if err := json.Unmarshal(data, &patch); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return patch, nil
}

func run(docPath, patchPath string) error {
	doc, err := readDocument(docPath)
	if err != nil {
		return err
	}
	patch, err := readPatch(patchPath)
	if err != nil {
		return err
	}

	result, err := deltatree.Apply(doc, patch)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	return encoder.Encode(result.Value())
}

func main() {
	if len(os.Args) != 3 {
		fmt.Printf("usage: dtpatch base.json patch.json\n")
		return
	}

	err := run(os.Args[1], os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
