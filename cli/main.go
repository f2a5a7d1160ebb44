package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Octogonapus/ForcPerf/clock"
)

func main() {
	epoch := clock.NewEpoch()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(epoch, os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("forc-perf failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
