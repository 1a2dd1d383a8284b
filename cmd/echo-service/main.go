// Package main provides the echo-service CLI.
package main

import (
	"os"

	"github.com/echo-labs/echo-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
