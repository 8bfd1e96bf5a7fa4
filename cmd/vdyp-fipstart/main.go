package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"vdyp/internal/platform/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		logger.Get().Error().Err(err).Msg("fipstart failed")
		stop()
		os.Exit(1)
	}
}
