// Package main is the entry point for the passage CLI.
package main

import (
	"os"

	"github.com/passagekit/passage/cmd/passage/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
