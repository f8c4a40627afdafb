package main

import (
	"github.com/joho/godotenv"

	"github.com/bryanwahyu/convodoc/internal/cli"
)

// Build-time version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
)

func main() {
	_ = godotenv.Load()
	cli.Execute(cli.VersionInfo{Version: version, Commit: commit})
}
