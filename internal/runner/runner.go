// Package runner executes a target command with secrets from the vault
// injected into its environment and masked out of its output. It is the only
// component that ever holds plaintext secrets and a child process at the
// same time, so its rules are strict: the passphrase variable never reaches
// the child, masking is on unless explicitly disabled, and a requested
// dotenv file is removed on every exit path.
package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/joho/godotenv"

	"github.com/calyptra/rv/internal/config"
	rverrors "github.com/calyptra/rv/internal/errors"
	logger "github.com/calyptra/rv/internal/logging"
	"github.com/calyptra/rv/internal/project"
	"github.com/calyptra/rv/internal/resolver"
	"github.com/calyptra/rv/internal/vault"
)

const (
	// ExitUsage is returned for malformed invocations (missing -- separator,
	// no keys requested).
	ExitUsage = 2

	// ExitSpawnFailure is returned when the target command cannot be
	// started, distinct from any exit code the child could produce normally.
	ExitSpawnFailure = 127
)

// Options describes one injection run.
type Options struct {
	// Specs are the requested keys, each KEY or KEY=ALIAS.
	Specs []string
	// Project scopes key resolution; empty means derive it from the nearest
	// manifest above the working directory, if any.
	Project string
	// All expands to every key declared in the project manifest.
	All bool
	// DotenvPath, if set, receives the resolved values as a temporary
	// owner-only dotenv file, deleted before Run returns.
	DotenvPath string
	// NoMask disables output masking. Debugging escape hatch, never the
	// default.
	NoMask bool
	// Argv is the target command and its arguments.
	Argv []string

	Stdin          io.Reader
	Stdout, Stderr io.Writer
	Logger         logger.Logger
}

// Run resolves secrets, spawns the target command, and returns its exit
// code. A non-nil error means the failure was rv's own (authentication,
// store access, spawn), not the child's.
func Run(settings *config.Settings, opts Options) (int, error) {
	if len(opts.Argv) == 0 {
		return ExitUsage, fmt.Errorf("no command given after --")
	}

	specs, projectName, err := expandSpecs(opts)
	if err != nil {
		return ExitUsage, err
	}
	if len(specs) == 0 {
		return ExitUsage, fmt.Errorf("no keys requested: pass KEY specs or --all")
	}

	secrets, err := fetchSecrets(settings, specs, projectName, opts)
	if err != nil {
		return 1, err
	}

	if opts.DotenvPath != "" {
		cleanup, err := writeDotenv(opts.DotenvPath, secrets)
		if err != nil {
			return 1, err
		}
		defer cleanup()
	}

	return spawn(settings, opts, secrets)
}

// expandSpecs applies --all and derives the project name from the nearest
// manifest when not given explicitly.
func expandSpecs(opts Options) (specs []string, projectName string, err error) {
	specs = opts.Specs
	projectName = opts.Project

	if !opts.All && projectName != "" {
		return specs, projectName, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get working directory: %w", err)
	}
	root, err := project.FindConfigUpward(cwd)
	if err != nil {
		return nil, "", err
	}
	if root == "" {
		if opts.All {
			return nil, "", fmt.Errorf("--all requires a %s manifest in this directory or above", config.ManifestName)
		}
		return specs, projectName, nil
	}

	cfg, err := project.LoadConfig(root)
	if err != nil {
		return nil, "", err
	}
	if opts.All {
		specs = cfg.KeySpecs()
	}
	if projectName == "" {
		projectName = project.Name(cfg, root)
	}
	return specs, projectName, nil
}

// fetchSecrets unlocks the store and decrypts each resolved key. Missing
// keys degrade with a stderr hint; authentication failures abort.
func fetchSecrets(settings *config.Settings, specs []string, projectName string, opts Options) (map[string]string, error) {
	passphrase, err := vault.LoadPassphrase(settings.MasterKeyPath)
	if err != nil {
		if errors.Is(err, rverrors.ErrNoPassphrase) {
			return nil, fmt.Errorf("store is not set up; run: rv init")
		}
		return nil, err
	}

	store := vault.New(settings.StorePath)
	store.Unlock(passphrase)
	defer store.Lock()

	names, err := store.Names()
	if err != nil {
		if errors.Is(err, rverrors.ErrStoreNotInitialized) {
			return nil, fmt.Errorf("store is not initialized; run: rv init")
		}
		return nil, err
	}

	result, err := resolver.Resolve(specs, projectName, names)
	if err != nil {
		return nil, err
	}
	for _, envName := range result.Missing {
		fmt.Fprintf(opts.Stderr, "warning: no vault entry for %s; run: rv set %s\n", envName, envName)
	}

	secrets := make(map[string]string, len(result.Resolved))
	for _, binding := range result.Resolved {
		value, err := store.GetSecret(binding.VaultKey)
		if err != nil {
			if errors.Is(err, rverrors.ErrAuthentication) {
				opts.Logger.Debugf("decrypt failed for %s: %v", binding.VaultKey, err)
				return nil, fmt.Errorf("secret %s unavailable", binding.VaultKey)
			}
			return nil, err
		}
		secrets[binding.EnvName] = value
	}
	return secrets, nil
}

// writeDotenv materializes the resolved values as an owner-only dotenv file
// and returns the cleanup that removes it. Deletion is guaranteed for every
// exit path because the caller defers the cleanup before spawning.
func writeDotenv(path string, secrets map[string]string) (func(), error) {
	content, err := godotenv.Marshal(secrets)
	if err != nil {
		return nil, fmt.Errorf("failed to encode dotenv: %w", err)
	}
	if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
		return nil, fmt.Errorf("failed to write dotenv file: %w", err)
	}
	return func() { os.Remove(path) }, nil
}

// spawn runs the target command with the parent environment overlaid by the
// resolved secrets. The passphrase variable is always stripped so children
// cannot read the master passphrase. With zero resolved keys the environment
// is otherwise untouched and masking is skipped.
func spawn(settings *config.Settings, opts Options, secrets map[string]string) (int, error) {
	cmd := exec.Command(opts.Argv[0], opts.Argv[1:]...)
	cmd.Env = childEnv(secrets)
	cmd.Stdin = opts.Stdin

	if opts.NoMask || len(secrets) == 0 {
		cmd.Stdout = opts.Stdout
		cmd.Stderr = opts.Stderr
	} else {
		values := make([]string, 0, len(secrets))
		for _, v := range secrets {
			values = append(values, v)
		}
		cmd.Stdout = newMaskWriter(opts.Stdout, values, settings.Redaction)
		cmd.Stderr = newMaskWriter(opts.Stderr, values, settings.Redaction)
	}

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return ExitSpawnFailure, fmt.Errorf("%w: %v", rverrors.ErrSpawnFailed, err)
}

func childEnv(secrets map[string]string) []string {
	env := make([]string, 0, len(os.Environ())+len(secrets))
	for _, entry := range os.Environ() {
		name, _, _ := strings.Cut(entry, "=")
		if name == config.PassphraseEnv {
			continue
		}
		if _, shadowed := secrets[name]; shadowed {
			continue
		}
		env = append(env, entry)
	}
	for name, value := range secrets {
		env = append(env, name+"="+value)
	}
	return env
}
