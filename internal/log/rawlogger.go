package log

import (
	"fmt"
	"io"
	"sync"
)

// RawLogger records every marker line the scanner recognises, verbatim.
type RawLogger interface {
	Log(path string, line int, kind string, text string)
}

type rawLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewRaw creates a new RawLogger. If writer is nil, returns a no-op logger.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w}
}

// Log emits a single "path:line kind | text" line. No timestamp is written
// so traces of identical inputs can be diffed.
func (r *rawLogger) Log(path string, line int, kind string, text string) {
	if r.w == nil {
		return
	}
	out := fmt.Sprintf("%s:%d %-5s | %s\n", path, line, kind, text)

	r.mu.Lock()
	_, _ = io.WriteString(r.w, out)
	r.mu.Unlock()
}
