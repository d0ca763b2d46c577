package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// Writer prints each text as one line, prefixed when prefix is set. The
// headless test mode uses it on stdout.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
	log    zerolog.Logger
}

func NewWriter(w io.Writer, prefix string, logger zerolog.Logger) *Writer {
	return &Writer{w: w, prefix: prefix, log: logger}
}

func (w *Writer) Emit(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintf(w.w, "%s%s\n", w.prefix, text); err != nil {
		w.log.Error().Err(err).Msg("output_write")
	}
}
