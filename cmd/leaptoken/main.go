// Package main provides the leaptoken CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leaptoken/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
