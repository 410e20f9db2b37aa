package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const maxIncludeDepth = 10

// tagResolver replaces !secret, !include and !env_var nodes in place.
type tagResolver struct {
	dir     string
	secrets map[string]*yaml.Node
}

func (r *tagResolver) resolve(n *yaml.Node, file string, depth int) error {
	if n == nil {
		return nil
	}
	switch n.Tag {
	case "!secret":
		v, err := r.secret(n.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*n = *v
		return nil
	case "!env_var":
		v, err := envVar(n.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*n = yaml.Node{Kind: yaml.ScalarNode, Value: v, Line: n.Line, Column: n.Column}
		return nil
	case "!include":
		if depth >= maxIncludeDepth {
			return fmt.Errorf("line %d: includes nested deeper than %d", n.Line, maxIncludeDepth)
		}
		target := n.Value
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(file), target)
		}
		inc, err := parseFile(target)
		if err != nil {
			return fmt.Errorf("line %d: include %s: %w", n.Line, n.Value, err)
		}
		if inc == nil {
			*n = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Line: n.Line, Column: n.Column}
			return nil
		}
		if err := r.resolve(inc, target, depth+1); err != nil {
			return fmt.Errorf("%s: %w", target, err)
		}
		*n = *inc
		return nil
	}

	for _, c := range n.Content {
		if err := r.resolve(c, file, depth); err != nil {
			return err
		}
	}
	return nil
}

func (r *tagResolver) secret(name string) (*yaml.Node, error) {
	if r.secrets == nil {
		path := filepath.Join(r.dir, SecretsFileName)
		root, err := parseFile(path)
		if err != nil {
			return nil, fmt.Errorf("secret %s: %w", name, err)
		}
		r.secrets = make(map[string]*yaml.Node)
		if root != nil && root.Kind == yaml.MappingNode {
			for i := 0; i+1 < len(root.Content); i += 2 {
				r.secrets[root.Content[i].Value] = root.Content[i+1]
			}
		}
	}
	v, ok := r.secrets[name]
	if !ok {
		return nil, fmt.Errorf("secret %s not defined", name)
	}
	return v, nil
}

// envVar evaluates "NAME [default]".
func envVar(expr string) (string, error) {
	name, def, hasDefault := strings.Cut(strings.TrimSpace(expr), " ")
	if v, ok := os.LookupEnv(name); ok {
		return v, nil
	}
	if hasDefault {
		return strings.TrimSpace(def), nil
	}
	return "", fmt.Errorf("environment variable %s not set", name)
}
