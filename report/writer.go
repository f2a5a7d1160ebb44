package report

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/moby/sys/atomicwriter"
)

// WriteFile writes the report as pretty-printed JSON. The file is replaced atomically, so a failed write leaves any
// previous report untouched.
func (r *Report) WriteFile(path string) error {
	buf, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling report failed: %w", err)
	}
	err = atomicwriter.WriteFile(path, buf, 0o644)
	if err != nil {
		return fmt.Errorf("writing report to %s failed: %w", path, err)
	}
	slog.Info("wrote report", slog.String("path", path), slog.Int("benchmarks", len(r.Benchmarks)))
	return nil
}
