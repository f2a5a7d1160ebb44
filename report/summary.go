package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// PrintSummary writes a human-readable account of the run to w. Styling is dropped when w is not a terminal. With
// frames set, every sampled frame is listed under its benchmark.
func (r *Report) PrintSummary(w io.Writer, frames bool) {
	renderer := lipgloss.NewRenderer(w)
	title := renderer.NewStyle().Bold(true)
	name := renderer.NewStyle().Foreground(lipgloss.Color("12"))
	muted := renderer.NewStyle().Faint(true)
	warn := renderer.NewStyle().Foreground(lipgloss.Color("11"))

	total := "unknown"
	if r.StartTime != nil && r.EndTime != nil {
		total = (r.EndTime.Std() - r.StartTime.Std()).String()
	}
	fmt.Fprintln(w, title.Render(fmt.Sprintf("Benchmarking took %s in total:", total)))
	if r.CompilerVersion != "" {
		fmt.Fprintln(w, muted.Render("    compiler "+r.CompilerVersion))
	}
	if len(r.Benchmarks) == 0 {
		fmt.Fprintln(w, muted.Render("    no benchmarks found"))
		return
	}

	for _, b := range r.Benchmarks {
		fmt.Fprintf(w, "    Benchmark %s took %s in total\n", name.Render(fmt.Sprintf("%q", b.Name)), b.TotalTime())

		size := "not reported"
		if b.BytecodeSize != nil {
			size = humanize.Bytes(*b.BytecodeSize)
		}
		fmt.Fprintln(w, muted.Render(fmt.Sprintf("        bytecode size: %s, frames: %d", size, b.Frames.Len())))

		for _, p := range b.Phases {
			if p.Open() {
				fmt.Fprintf(w, "        Phase %q %s\n", p.Name, warn.Render("never finished"))
				continue
			}
			fmt.Fprintf(w, "        Phase %q took %s in total\n", p.Name, p.EndTime.Std()-p.StartTime.Std())
		}

		if frames {
			for _, f := range b.Frames.Snapshot() {
				fmt.Fprintln(w, muted.Render(fmt.Sprintf(
					"        Frame at %s: cpu %.1f%%, memory %s, virtual memory %s, read %s (+%s), written %s (+%s)",
					f.Timestamp.Std(), f.CPUUsage,
					humanize.Bytes(f.MemoryUsage), humanize.Bytes(f.VirtualMemoryUsage),
					humanize.Bytes(f.DiskTotalReadBytes), humanize.Bytes(f.DiskReadBytes),
					humanize.Bytes(f.DiskTotalWrittenBytes), humanize.Bytes(f.DiskWrittenBytes),
				)))
			}
		}
	}
}
