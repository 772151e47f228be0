// graceful exits shortly after SIGINT.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	fmt.Fprintln(os.Stderr, "started")
	select {
	case <-sigs:
		time.Sleep(200 * time.Millisecond)
		fmt.Fprintln(os.Stderr, "cleaned up")
		os.Exit(0)
	case <-time.After(10 * time.Second):
		fmt.Println(`{"done": true}`)
	}
}
