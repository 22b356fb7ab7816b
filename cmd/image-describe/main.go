package main

import (
	"os"

	"github.com/ironsheep/image-describe/internal/cli"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	info := cli.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}
	os.Exit(cli.Execute(info, cli.CloudDialer, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
