package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"optimage/internal/cli"
)

func main() {
	// Interrupting kills the running compressors and still cleans up the
	// temporary files.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
