package project

import (
	"path/filepath"
	"strings"
)

// Name returns the project name: the manifest's explicit field if set,
// otherwise the base name of the project directory.
func Name(cfg *Config, dir string) string {
	if cfg != nil && cfg.Project != "" {
		return cfg.Project
	}
	return filepath.Base(dir)
}

// Normalize maps a project name onto the vault key alphabet: uppercased,
// every non-alphanumeric run collapsed to a single underscore, edges
// trimmed. Total and idempotent. Differently-spelled names can normalize
// identically and therefore share scoped keys; that collision is accepted.
func Normalize(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToUpper(name) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// ScopedKey derives the project-scoped vault key name for key. This is the
// only place project scoping touches vault key naming.
func ScopedKey(projectName, key string) string {
	return Normalize(projectName) + "__" + key
}
