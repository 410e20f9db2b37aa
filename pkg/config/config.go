// Package config loads the user's configuration.yaml and derives the set of
// components it requests.
//
// Only two things are read from the document: the top-level keys, each of
// which names a component (optionally followed by a qualifier such as
// "sensor kitchen"), and the core section under [CoreKey], which is decoded
// into a [CoreConfig] and validated. Component sections are never
// interpreted.
//
//	cfg, err := config.Load(dir)
//	if errors.Is(err, config.ErrNotExist) {
//	    ...
//	}
//	requested := cfg.Requested()
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stackreqs/pkg/component"
	stackerrors "github.com/matzehuels/stackreqs/pkg/errors"
)

const (
	// FileName is the configuration file inside the config directory.
	FileName = "configuration.yaml"
	// SecretsFileName holds values referenced with !secret.
	SecretsFileName = "secrets.yaml"
	// CoreKey is the top-level key of the core section. It is not a
	// component and is excluded from the requested set.
	CoreKey = "homeassistant"
)

// ErrNotExist is returned by Load when configuration.yaml is missing.
var ErrNotExist = errors.New("config does not exist")

// Error reports a configuration file that could not be loaded or whose core
// section is invalid.
type Error struct {
	Path    string // file that failed
	Section string // section that failed validation, empty for load errors
	Err     error
}

func (e *Error) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("invalid config for [%s]: %v", e.Section, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns ErrCodeInvalidConfig.
func (e *Error) Code() stackerrors.Code { return stackerrors.ErrCodeInvalidConfig }

// Config is a loaded configuration.
type Config struct {
	Dir  string     // absolute config directory
	Path string     // absolute path of configuration.yaml
	Keys []string   // top-level keys in document order
	Core CoreConfig // decoded and validated core section
}

// Path returns the configuration file path for dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads and validates <dir>/configuration.yaml.
func Load(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	path := Path(abs)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
	}
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	root, err := parseFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	r := &tagResolver{dir: abs}
	if err := r.resolve(root, path, 0); err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	cfg := &Config{Dir: abs, Path: path}
	if root == nil {
		return cfg, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, &Error{Path: path, Err: fmt.Errorf("line %d: top level must be a mapping", root.Line)}
	}

	var core *yaml.Node
	collectKeys(root, func(key, value *yaml.Node) {
		cfg.Keys = append(cfg.Keys, key.Value)
		if key.Value == CoreKey && core == nil {
			core = value
		}
	})

	if core != nil {
		cc, err := decodeCore(core)
		if err != nil {
			return nil, &Error{Path: path, Section: CoreKey, Err: err}
		}
		cfg.Core = cc
	}
	return cfg, nil
}

// Requested returns the sorted, deduplicated component identifiers named by
// the top-level keys, excluding the core section.
func (c *Config) Requested() []string {
	return component.RequestedFromKeys(c.Keys, CoreKey)
}

// collectKeys calls fn for each key of mapping, expanding "<<" merge keys
// into the keys of the merged mappings. Explicit keys are visited first so
// they take precedence over merged ones.
func collectKeys(mapping *yaml.Node, fn func(key, value *yaml.Node)) {
	var merged []*yaml.Node
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], mapping.Content[i+1]
		if key.Kind == yaml.ScalarNode && key.Tag == "!!merge" {
			merged = append(merged, value)
			continue
		}
		fn(key, value)
	}
	for _, m := range merged {
		for _, src := range mergeSources(m) {
			collectKeys(src, fn)
		}
	}
}

// mergeSources returns the mappings named by the value of a merge key: a
// mapping, an alias to one, or a sequence of either.
func mergeSources(n *yaml.Node) []*yaml.Node {
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias != nil {
			return mergeSources(n.Alias)
		}
	case yaml.MappingNode:
		return []*yaml.Node{n}
	case yaml.SequenceNode:
		var out []*yaml.Node
		for _, item := range n.Content {
			out = append(out, mergeSources(item)...)
		}
		return out
	}
	return nil
}

// parseFile returns the document root of path, or nil for an empty
// document.
func parseFile(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	return doc.Content[0], nil
}
