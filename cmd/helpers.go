package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/briandowns/spinner"

	"github.com/calyptra/rv/internal/config"
	rverrors "github.com/calyptra/rv/internal/errors"
	"github.com/calyptra/rv/internal/ui"
	"github.com/calyptra/rv/internal/vault"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
// This ensures consistent output formatting across all commands.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		// If we can't set spinner color, just continue without it.
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	if !verbose && !debug {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if !verbose && !debug {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if !verbose && !debug {
			s.Stop()
		}
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// loadSettings resolves the on-disk layout for this invocation.
func loadSettings() (*config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	Logger.Debugf("Using rv root: %s", settings.RootDir)
	return settings, nil
}

// unlockedStore opens the store with the passphrase from the environment or
// the master key file. The caller must defer store.Lock().
func unlockedStore(settings *config.Settings) (*vault.Store, error) {
	passphrase, err := vault.LoadPassphrase(settings.MasterKeyPath)
	if err != nil {
		if errors.Is(err, rverrors.ErrNoPassphrase) {
			return nil, fmt.Errorf("vault is not set up; run %s first", ui.Code.Sprint("rv init"))
		}
		return nil, err
	}

	store := vault.New(settings.StorePath)
	store.Unlock(passphrase)
	return store, nil
}

// translateStoreError rewrites typed store errors into actionable messages.
func translateStoreError(err error) error {
	switch {
	case errors.Is(err, rverrors.ErrStoreNotInitialized):
		return fmt.Errorf("vault is not initialized; run %s", ui.Code.Sprint("rv init"))
	case errors.Is(err, rverrors.ErrAuthentication):
		// Log hygiene: the raw decryption failure stays in debug logs only.
		Logger.Debugf("store authentication failure: %v", err)
		return fmt.Errorf("secret unavailable: wrong passphrase or tampered store")
	default:
		return err
	}
}
