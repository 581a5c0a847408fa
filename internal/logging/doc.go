// Package logger provides leveled, colorized CLI logging.
//
// Info and debug output go to stdout and are gated behind the --verbose
// and --debug flags; warnings and errors always go to stderr.
package logger
