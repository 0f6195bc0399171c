// Package main is the entry point of the tunesync command line.
//
// Build:
//
//	go build -o build/tunesync ./cmd
//
// Run:
//
//	./build/tunesync state
package main

import (
	"os"

	"github.com/tejashwikalptaru/tunesync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
