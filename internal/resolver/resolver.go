// Package resolver maps requested key specs onto vault key names. A spec is
// either KEY or KEY=ALIAS; the alias renames the environment variable the
// secret is injected as. Resolution prefers a project-scoped vault entry over
// a global one, and a key missing from the vault degrades the request rather
// than failing it.
package resolver

import (
	"fmt"
	"strings"

	"github.com/calyptra/rv/internal/project"
)

// Binding maps one vault entry to the environment variable it is injected as.
type Binding struct {
	VaultKey string
	EnvName  string
}

// Result is the outcome of resolving a set of key specs.
type Result struct {
	Resolved []Binding
	// Missing holds the environment names of requested keys with neither a
	// scoped nor a global vault entry. Missing keys are reported, not fatal:
	// the command still runs without them.
	Missing []string
}

// ParseSpec splits a KEY or KEY=ALIAS spec. Only the first '=' separates the
// alias; an empty key or alias is rejected.
func ParseSpec(spec string) (key, envName string, err error) {
	key, alias, found := strings.Cut(spec, "=")
	if key == "" {
		return "", "", fmt.Errorf("invalid key spec %q: empty key", spec)
	}
	if !found {
		return key, key, nil
	}
	if alias == "" {
		return "", "", fmt.Errorf("invalid key spec %q: empty alias", spec)
	}
	return key, alias, nil
}

// Resolve maps each spec to a vault key. For a project named projectName,
// the scoped entry (NORMALIZED__KEY) shadows the global entry of the same
// key; vaultNames is the set of names present in the vault.
func Resolve(specs []string, projectName string, vaultNames map[string]bool) (*Result, error) {
	result := &Result{}
	for _, spec := range specs {
		key, envName, err := ParseSpec(spec)
		if err != nil {
			return nil, err
		}

		// Scoped lookup only applies under a named project; without one, an
		// entry like "__KEY" must not resolve.
		scoped := ""
		if projectName != "" {
			scoped = project.ScopedKey(projectName, key)
		}
		switch {
		case scoped != "" && vaultNames[scoped]:
			result.Resolved = append(result.Resolved, Binding{VaultKey: scoped, EnvName: envName})
		case vaultNames[key]:
			result.Resolved = append(result.Resolved, Binding{VaultKey: key, EnvName: envName})
		default:
			result.Missing = append(result.Missing, envName)
		}
	}
	return result, nil
}
