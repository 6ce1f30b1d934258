package main

import (
	"os"

	"github.com/Jakob-KB/financial-market-correlation-topology/cmd/topology/commands"
)

// main is the entry point for the topology CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
