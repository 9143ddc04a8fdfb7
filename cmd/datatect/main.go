// Package main provides the datatect command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/datatect/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
