package main

import (
	"context"
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

func run(basePath, targetPath string) error {
	base, err := readDocument(basePath)
	if err != nil {
		return err
	}
	target, err := readDocument(targetPath)
	if err != nil {
		return err
	}

	patch, err := deltatree.Diff(context.Background(), base, target)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	return encoder.Encode(patch)
}

func main() {
	if len(os.Args) != 3 {
		fmt.Printf("usage: dtdiff base.json target.json\n")
		return
	}

	err := run(os.Args[1], os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
