// Command conserve is the Conserve CLI: backup, restore, validate, diff, and
// list operations against a content-addressed archive.
package main

import (
	"os"

	"github.com/yonasBSD/conserve/cmd/conserve/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		commands.PrintErr("Error: %v", err)
		os.Exit(1)
	}
}
