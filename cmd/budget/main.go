package main

import (
	"os"

	"github.com/rupeeriser/budget-buddy/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
