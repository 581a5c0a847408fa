package runner

import (
	"bytes"
	"io"
)

// maskWriter replaces every literal occurrence of a secret value in the
// stream with the redaction token before forwarding to dst. Matching is
// substring-based and stateless across writes: a value split exactly across
// a chunk boundary is not masked. Typical line-buffered child output keeps
// values within one chunk.
type maskWriter struct {
	dst       io.Writer
	secrets   [][]byte
	redaction []byte
}

// newMaskWriter wraps dst, masking the given values. Empty values are
// skipped; with nothing to mask, dst is returned unwrapped.
func newMaskWriter(dst io.Writer, values []string, redaction string) io.Writer {
	w := &maskWriter{dst: dst, redaction: []byte(redaction)}
	for _, v := range values {
		if v != "" {
			w.secrets = append(w.secrets, []byte(v))
		}
	}
	if len(w.secrets) == 0 {
		return dst
	}
	return w
}

func (w *maskWriter) Write(p []byte) (int, error) {
	out := p
	for _, secret := range w.secrets {
		out = bytes.ReplaceAll(out, secret, w.redaction)
	}
	if _, err := w.dst.Write(out); err != nil {
		return 0, err
	}
	// Report the original length: from the caller's view every input byte
	// was consumed.
	return len(p), nil
}
