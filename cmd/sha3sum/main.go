package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// interrupted is polled by the directory walker between entries so that a
// run inside a huge directory stays responsive to ^C.
var interrupted atomic.Bool

func main() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		interrupted.Store(true)
	}()

	root := newRootCmd(os.Stdin)
	if err := root.Execute(); err != nil {
		// Per-file diagnostics were already written; the sentinel only
		// carries the exit status.
		if !errors.Is(err, errExitFailure) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
