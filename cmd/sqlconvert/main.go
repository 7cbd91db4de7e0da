// Package main provides the sqlconvert command.
package main

import (
	"os"

	"github.com/leapstack-labs/sqlconvert/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
