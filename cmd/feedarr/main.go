// Package main is the entry point for the feedarr application.
package main

import (
	"os"

	"github.com/feedarr/feedarr/cmd/feedarr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
