package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/asynkron/binpatch/internal/cli"
)

// main wires the patcher CLI to the process; Ctrl+C before the write aborts it.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
