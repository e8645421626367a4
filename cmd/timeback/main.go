package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"timeback/internal/services"
	"timeback/internal/supervisor"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := supervisor.NewRegistry()
	go func() {
		<-ctx.Done()
		registry.TerminateAll()
	}()

	cmd := newRootCommand(registry)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, services.UserMessage(err))
		}
		os.Exit(1)
	}
}
