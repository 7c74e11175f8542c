// Package main is the entry point for quotectl, the command-line client for
// the local quote collection.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	rootcmd "github.com/jsamuelsen/quotekeeper/cmd/quotectl/root"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	return rootcmd.New().ExecuteContext(ctx)
}
