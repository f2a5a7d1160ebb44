package benchmark

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

// lineReader forwards the compiler's stdout to the reconciler one line at a time so the reconciler never blocks on
// an idle pipe.
type lineReader struct {
	r     io.Reader
	lines chan<- string
}

func newLineReader(r io.Reader, lines chan<- string) *lineReader {
	return &lineReader{r: r, lines: lines}
}

// Run reads until end of stream, a malformed line, or ctx is cancelled, and closes the line channel on return.
// Trailing whitespace is stripped from each line. After a malformed line the rest of the stream is discarded so the
// compiler never blocks writing to a full pipe.
func (lr *lineReader) Run(ctx context.Context) {
	br := bufio.NewReader(lr.r)
	malformed := lr.forward(ctx, br)
	close(lr.lines)
	if malformed {
		n, err := io.Copy(io.Discard, br)
		slog.Debug("discarded compiler output", slog.Int64("bytes", n))
		if err != nil && !errors.Is(err, os.ErrClosed) {
			slog.Warn("discarding compiler output failed", slog.String("error", err.Error()))
		}
	}
}

// forward sends lines until the stream ends or ctx is cancelled. It reports whether it stopped on a malformed line.
func (lr *lineReader) forward(ctx context.Context, br *bufio.Reader) bool {
	for {
		if ctx.Err() != nil {
			return false
		}

		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if !utf8.ValidString(line) {
				slog.Warn("compiler output is not valid UTF-8, no further lines will be read")
				return true
			}
			select {
			case lr.lines <- strings.TrimRightFunc(line, unicode.IsSpace):
			case <-ctx.Done():
				return false
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				slog.Warn("reading compiler output failed", slog.String("error", err.Error()))
			}
			return false
		}
	}
}
