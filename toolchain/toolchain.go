package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/hashicorp/go-version"
)

// ProbeVersion runs `exe --version` and parses the compiler version from its output.
func ProbeVersion(ctx context.Context, exe string) (*version.Version, error) {
	out, err := exec.CommandContext(ctx, exe, "--version").Output()
	if err != nil {
		return nil, fmt.Errorf("running %s --version failed: %w", exe, err)
	}
	return ParseVersionOutput(string(out))
}

// ParseVersionOutput extracts the version from output like "forc 0.63.1". The version is the last field of the
// last non-empty line, with an optional v prefix.
func ParseVersionOutput(out string) (*version.Version, error) {
	line := lastNonEmptyLine(out)
	slog.Debug("selected version output", slog.String("line", line))

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("compiler printed no version")
	}
	v, err := version.NewVersion(strings.TrimPrefix(fields[len(fields)-1], "v"))
	if err != nil {
		return nil, fmt.Errorf("can't parse compiler version: %w", err)
	}
	return v, nil
}

// CheckConstraint warns when v does not satisfy constraint. An empty constraint accepts every version.
func CheckConstraint(v *version.Version, constraint string) error {
	if constraint == "" {
		return nil
	}
	c, err := version.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("can't parse compiler constraint %q: %w", constraint, err)
	}
	if !c.Check(v) {
		slog.Warn("compiler version does not satisfy the configured constraint; results may not be comparable",
			slog.String("version", v.String()), slog.String("constraint", constraint))
	}
	return nil
}

func lastNonEmptyLine(out string) string {
	lines := strings.Split(out, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); len(line) > 0 {
			return line
		}
	}
	return ""
}
