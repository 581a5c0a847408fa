package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/calyptra/rv/internal/config"
	rverrors "github.com/calyptra/rv/internal/errors"
)

// SecretSpec declares one key a project may receive.
type SecretSpec struct {
	Description string
	// As renames the environment variable at injection time; empty means the
	// vault key name itself.
	As  string
	Tag string
}

// Config is a parsed project manifest. Its secrets map is the complete set
// of keys the decision engine will ever inject for this project.
type Config struct {
	// Project is the explicit project name, or empty to derive from the
	// directory name.
	Project string
	Secrets map[string]SecretSpec

	// Dir is the directory the manifest was loaded from.
	Dir string
}

// FindConfig reports the manifest path in dir, or empty if absent. This is
// the strict lookup used by the CLI: it never walks upward.
func FindConfig(dir string) (string, error) {
	path := filepath.Join(dir, config.ManifestName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to check for manifest at %s: %w", path, err)
	}
	return path, nil
}

// FindConfigUpward walks from dir toward the filesystem root and returns
// the first directory containing a manifest, or empty if none is found.
// The injection path uses this so commands run from a subdirectory still
// resolve their project.
func FindConfigUpward(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	for {
		path, err := FindConfig(current)
		if err != nil {
			return "", err
		}
		if path != "" {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", nil
		}
		current = parent
	}
}

// LoadConfig parses and validates the manifest in dir. Every shape problem
// is a field-level ConfigValidationError; types are never silently coerced.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, config.ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest at %s: %w", path, err)
	}
	cfg, err := parseConfig(data)
	if err != nil {
		return nil, err
	}
	cfg.Dir = dir
	return cfg, nil
}

func parseConfig(data []byte) (*Config, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, rverrors.NewConfigValidation("", "not a JSON object")
	}

	cfg := &Config{Secrets: map[string]SecretSpec{}}

	if raw, ok := top["project"]; ok {
		if err := json.Unmarshal(raw, &cfg.Project); err != nil {
			return nil, rverrors.NewConfigValidation("project", "must be a string")
		}
	}

	rawSecrets, ok := top["secrets"]
	if !ok {
		return nil, rverrors.NewConfigValidation("secrets", "missing required object")
	}

	var secrets map[string]json.RawMessage
	if err := json.Unmarshal(rawSecrets, &secrets); err != nil || secrets == nil {
		return nil, rverrors.NewConfigValidation("secrets", "must be an object")
	}

	for key, rawEntry := range secrets {
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(rawEntry, &entry); err != nil || entry == nil {
			return nil, rverrors.NewConfigValidation("secrets."+key, "must be an object")
		}

		var spec SecretSpec
		if raw, ok := entry["description"]; ok {
			if err := json.Unmarshal(raw, &spec.Description); err != nil {
				return nil, rverrors.NewConfigValidation("secrets."+key+".description", "must be a string")
			}
		}
		if raw, ok := entry["as"]; ok {
			if err := json.Unmarshal(raw, &spec.As); err != nil {
				return nil, rverrors.NewConfigValidation("secrets."+key+".as", "must be a string")
			}
		}
		if raw, ok := entry["tag"]; ok {
			if err := json.Unmarshal(raw, &spec.Tag); err != nil {
				return nil, rverrors.NewConfigValidation("secrets."+key+".tag", "must be a string")
			}
		}
		cfg.Secrets[key] = spec
	}

	return cfg, nil
}

// KeySpecs returns the manifest's secrets as resolver key specs
// (KEY or KEY=ALIAS), sorted for deterministic rewrites.
func (c *Config) KeySpecs() []string {
	specs := make([]string, 0, len(c.Secrets))
	for key, spec := range c.Secrets {
		if spec.As != "" {
			specs = append(specs, key+"="+spec.As)
		} else {
			specs = append(specs, key)
		}
	}
	sort.Strings(specs)
	return specs
}
