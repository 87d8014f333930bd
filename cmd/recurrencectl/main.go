package main

import (
	"fmt"
	"os"
	"time"

	"walletguru/internal/cli"
)

func main() {
	if err := cli.NewRecurrenceCommand(time.Now).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
