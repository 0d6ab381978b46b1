// Package main is the entry point for the catknow browse CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/catknow/cmd/browse/commands"
	"github.com/timmy/catknow/internal/client"
	"github.com/timmy/catknow/internal/config"
	"github.com/timmy/catknow/internal/logger"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Keep the terminal for the listing; only problems go to stderr
	logger.SetDefaultLogger(logger.New(&logger.Config{
		Level:       "warn",
		Format:      "text",
		Output:      stderr,
		ServiceName: "catknow-browse",
	}))

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}

	cli := commands.New(client.NewCatService(&cfg.Client), commands.Options{
		PageSize:    cfg.Client.PageSize,
		InitialPage: cfg.Client.InitialPage,
	})
	cli.SetArgs(args)
	cli.SetOutput(stdout, stderr)

	if err := cli.Execute(ctx); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}
	return 0
}
