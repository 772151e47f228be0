// stubborn ignores interrupts and has to be killed.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	signal.Ignore(os.Interrupt, syscall.SIGTERM)
	for {
		time.Sleep(time.Second)
	}
}
