// filepath: cmd/mediashelf/main.go
package main

import (
	"mediashelf/internal/cli"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "0.1.0"

func main() {
	// Delegate all execution to the CLI package
	cli.Execute(Version)
}
