package main

import (
	"os"

	"github.com/snowlens/snowlens/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
