package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"jotter/internal/app"
	"jotter/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], cli.StdStreams(), app.Options{})
	cancel()
	os.Exit(code)
}
