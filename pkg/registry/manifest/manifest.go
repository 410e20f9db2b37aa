// Package manifest implements a component registry backed by a directory of
// manifest files.
//
// Each component is described by one of:
//
//	<dir>/<id>/manifest.json
//	<dir>/<id>.toml
//	<dir>/<id>.json
//
// checked in that order. Manifests are read on first lookup and kept in
// memory for the lifetime of the registry.
//
// A TOML manifest looks like:
//
//	dependencies = ["zwave"]
//	requirements = ["pyzwave==0.3"]
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stackreqs/pkg/component"
	stackerrors "github.com/matzehuels/stackreqs/pkg/errors"
)

// Registry serves descriptors from a manifest directory. It is safe for
// concurrent use.
type Registry struct {
	dir string

	mu     sync.Mutex
	loaded map[string]*component.Descriptor
}

// New returns a registry rooted at dir, which must exist.
func New(dir string) (*Registry, error) {
	if err := stackerrors.ValidatePath(dir); err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, stackerrors.Wrap(stackerrors.ErrCodeFileNotFound, err, "component directory %s", dir)
	}
	if !info.IsDir() {
		return nil, stackerrors.New(stackerrors.ErrCodeInvalidPath, "%s is not a directory", dir)
	}
	return &Registry{dir: dir, loaded: make(map[string]*component.Descriptor)}, nil
}

// Name returns the backend name used in logs and metrics.
func (r *Registry) Name() string { return "manifest" }

// Dir returns the manifest directory.
func (r *Registry) Dir() string { return r.dir }

// Lookup returns the descriptor for id, reading its manifest on first use.
// Identifiers that could escape the directory are reported as not found.
func (r *Registry) Lookup(_ context.Context, id string) (*component.Descriptor, error) {
	if err := stackerrors.ValidateComponentID(id); err != nil {
		return nil, fmt.Errorf("%w: %w", component.ErrNotFound, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.loaded[id]; ok {
		return d.Clone(), nil
	}
	d, err := r.load(id)
	if err != nil {
		return nil, err
	}
	r.loaded[id] = d
	return d.Clone(), nil
}

// List returns every component with a manifest in the directory.
func (r *Registry) List(context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		var id string
		switch {
		case e.IsDir():
			if _, err := os.Stat(filepath.Join(r.dir, name, "manifest.json")); err != nil {
				continue
			}
			id = name
		case strings.HasSuffix(name, ".toml"):
			id = strings.TrimSuffix(name, ".toml")
		case strings.HasSuffix(name, ".json"):
			id = strings.TrimSuffix(name, ".json")
		default:
			continue
		}
		if stackerrors.ValidateComponentID(id) == nil {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// Close is a no-op.
func (r *Registry) Close() error { return nil }

type candidate struct {
	path   string
	decode func([]byte, *component.Descriptor) error
}

func decodeJSON(data []byte, d *component.Descriptor) error { return json.Unmarshal(data, d) }

func decodeTOML(data []byte, d *component.Descriptor) error { return toml.Unmarshal(data, d) }

func (r *Registry) load(id string) (*component.Descriptor, error) {
	candidates := []candidate{
		{filepath.Join(r.dir, id, "manifest.json"), decodeJSON},
		{filepath.Join(r.dir, id+".toml"), decodeTOML},
		{filepath.Join(r.dir, id+".json"), decodeJSON},
	}
	for _, c := range candidates {
		data, err := os.ReadFile(c.path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest %s: %w", c.path, err)
		}

		var d component.Descriptor
		if err := c.decode(data, &d); err != nil {
			return nil, stackerrors.Wrap(stackerrors.ErrCodeInvalidFormat, err, "parse manifest %s", c.path)
		}
		if err := validate(id, &d); err != nil {
			return nil, stackerrors.Wrap(stackerrors.ErrCodeInvalidComponent, err, "manifest %s", c.path)
		}
		return &d, nil
	}
	return nil, fmt.Errorf("%w: %s", component.ErrNotFound, id)
}

// validate fills in a missing ID and checks the manifest is self-consistent.
// Requirement strings are opaque and kept as written.
func validate(id string, d *component.Descriptor) error {
	if d.ID == "" {
		d.ID = id
	}
	if d.ID != id {
		return fmt.Errorf("declares id %q, expected %q", d.ID, id)
	}
	for _, dep := range d.Dependencies {
		if err := stackerrors.ValidateComponentID(dep); err != nil {
			return fmt.Errorf("dependency: %w", err)
		}
	}
	return nil
}

var (
	_ component.Registry = (*Registry)(nil)
	_ component.Lister   = (*Registry)(nil)
)
