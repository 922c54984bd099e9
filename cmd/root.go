// Package cmd assembles the stamd command-line interface with cobra: a
// package-global RootCommand plus one init-registered subcommand per file.
package cmd

import (
	"github.com/spf13/cobra"
)

// RootCommand is the base CLI command every subcommand attaches itself to
// via its own init function.
var RootCommand = &cobra.Command{
	Use:   "stamd",
	Short: "stamd serves STAM annotation stores over HTTP",
	Long:  "stamd is an HTTP API onto a pool of on-disk STAM annotation stores.",
}
