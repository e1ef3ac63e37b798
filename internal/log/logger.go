package log

import (
	"io"
	"log/slog"
	"os"
)

// New returns a logger that writes text records to w through the
// redacting handler. Passing nil writes to stderr.
func New(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewRedactingHandler(h))
}
