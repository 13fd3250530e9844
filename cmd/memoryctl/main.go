// Command memoryctl is a thin, direct-mode client for inspecting and
// driving the memory engine's libraries without going through the MCP
// tool surface.
package main

import (
	"fmt"
	"os"

	"github.com/JaimeStill/persistent-context/cmd/memoryctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
