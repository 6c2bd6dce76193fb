package main

import (
	"os"

	"otkeys/cmd/otkeys/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
