package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/janisto/portfolio-generator/internal/form"
	"github.com/janisto/portfolio-generator/internal/portfolio"
	"github.com/janisto/portfolio-generator/internal/service/draft"
)

// readForm decodes a profile form from path, or stdin when path is "-".
// JSON input is accepted because it is valid YAML.
func readForm(path string, stdin io.Reader) (portfolio.FormState, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return portfolio.FormState{}, fmt.Errorf("read profile: %w", err)
	}

	var state portfolio.FormState
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&state); err != nil {
		return portfolio.FormState{}, fmt.Errorf("decode profile %s: %w", path, err)
	}
	return state, nil
}

// submitForm runs the form through a throwaway manager so the CLI applies
// the same normalization and validation as the API.
func submitForm(ctx context.Context, state portfolio.FormState) (*portfolio.Record, error) {
	m := form.NewManager(draft.NewMemoryStore(), form.WithOwner("cli"))
	m.Replace(ctx, state)
	return m.Submit(ctx)
}

func loadRecord(ctx context.Context, path string, stdin io.Reader) (*portfolio.Record, error) {
	state, err := readForm(path, stdin)
	if err != nil {
		return nil, err
	}
	return submitForm(ctx, state)
}
