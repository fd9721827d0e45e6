// Package main is the entry point for the slate layout server and its
// validation tooling.
package main

import (
	"os"

	"github.com/slatehq/slate/cmd/slate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
