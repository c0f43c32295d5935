// streampump keeps a persistent broker connection pumping on a
// dedicated run loop.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"streampump/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "streampump: %v\n", err)
		os.Exit(1)
	}
}
