// Package main is the entry point for the todo CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"todo/internal/backend/restapi"
	"todo/internal/cli"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/service"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	logger := zap.NewNop()
	defer func() { _ = logger.Sync() }()

	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		if cfg.Debug {
			dev, err := zap.NewDevelopment()
			if err != nil {
				return nil, err
			}
			logger = dev
		}
		return restapi.New(cfg, logger), nil
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	_ = logger.Sync()
	os.Exit(code)
}
