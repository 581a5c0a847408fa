// Package ui provides semantic terminal formatting for CLI output.
package ui
