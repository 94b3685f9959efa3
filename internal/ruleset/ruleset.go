// Package ruleset defines parser types from YAML files, so simple
// column-to-key mappings need no Go code.
//
// A file lists parser definitions:
//
//	parsers:
//	  - name: leads
//	    group: CRM
//	    extends: passthrough
//	    defaults:
//	      notes: []
//	    rules:
//	      - exact: Email
//	        once: true
//	        key: email
//	        transform: lower
//	      - pattern: '^Note #\d$'
//	        action: append
//	        key: notes
//	        skip_empty: true
//
// Each rule names exactly one criterion (exact, pattern or any) and an
// action: set (default) stores the value, append adds it to a list, split
// appends every item of a free-form list. An empty key means the header
// name; path selects a nested map to write into.
package ruleset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the top-level document of a ruleset file.
type File struct {
	Parsers []Definition `yaml:"parsers"`
}

// Definition declares one parser type.
type Definition struct {
	Name        string         `yaml:"name"`
	Group       string         `yaml:"group"`
	Label       string         `yaml:"label"`
	Description string         `yaml:"description"`
	Extends     string         `yaml:"extends"`
	Defaults    map[string]any `yaml:"defaults"`
	Rules       []RuleSpec     `yaml:"rules"`
}

// RuleSpec declares one rule.
type RuleSpec struct {
	Exact     string   `yaml:"exact"`
	Pattern   string   `yaml:"pattern"`
	Any       bool     `yaml:"any"`
	Once      bool     `yaml:"once"`
	Name      string   `yaml:"name"`
	Action    string   `yaml:"action"`
	Key       string   `yaml:"key"`
	Path      []string `yaml:"path"`
	Transform string   `yaml:"transform"`
	SkipEmpty bool     `yaml:"skip_empty"`
}

// Load reads and decodes a ruleset file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a ruleset document. Unknown fields are rejected so typos
// in rule keys do not silently disable a rule.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode ruleset: %w", err)
	}
	return &f, nil
}
