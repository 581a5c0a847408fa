package decision

import "strings"

// SingleQuote wraps s in single quotes with embedded single quotes escaped
// as '\'', so a POSIX shell parsing the result reproduces s byte for byte.
func SingleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// quoteArg returns s unchanged when it is already safe as a single shell
// word, and single-quotes it otherwise.
func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == '.', r == '/', r == '=', r == ':':
		default:
			return SingleQuote(s)
		}
	}
	return s
}
