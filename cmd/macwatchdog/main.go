// Package main is the entry point for macwatchdog.
package main

import (
	"os"

	"github.com/ianheil/macwatchdog-cli/internal/cli"
)

// version is set at build time via -ldflags. The default is a dev
// fallback for plain `go install` or `go run` usage.
var version = "dev"

func main() {
	if version != "dev" {
		cli.Version = version
	}
	os.Exit(cli.Execute())
}
