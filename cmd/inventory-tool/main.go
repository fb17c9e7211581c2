// Package main is the entry point for the inventory-tool CLI.
//
// The binary maintains a YAML inventory of hosts, groups and IP pools and
// serves it to Ansible as a dynamic inventory. All functionality lives in
// the internal/cli package, which defines the cobra commands.
//
// Build-time variables (version, commit, date) are injected via ldflags.
package main

import (
	"github.com/shinji-kodama/inventory-tool/internal/cli"
)

// version, commit, and date are set at build time via
// -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
