// Package main provides the entry point for the gitai CLI.
package main

import (
	"os"

	"github.com/gitai-dev/gitai/cmd/gitai/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
