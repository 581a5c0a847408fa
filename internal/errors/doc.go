// Package errors defines the error taxonomy shared across rv.
//
// Store and crypto errors are fatal and must never be downgraded to "no
// secret"; only ErrSecretNotFound allows execution to continue (the
// executor degrades and reports instead of aborting).
package errors
