// cmd/nutrieval/main.go
package main

import (
	"github.com/mwiater/nutrieval/internal/commands"
)

// Set by the build with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	setVersionInfo = commands.SetVersionInfo
	executeCmd     = commands.Execute
)

// main starts the nutrieval CLI by delegating to the cobra root command.
func main() {
	setVersionInfo(version, commit, date)
	executeCmd()
}
