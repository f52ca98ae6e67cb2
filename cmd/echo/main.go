package main

import (
	"fmt"
	"os"

	"github.com/Hussain0327/echo-analytics-platform/cmd/echo/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
