// Package main is the entry point for the basecamp CLI.
package main

import "github.com/basecamp/basecamp-cli/internal/cli"

func main() {
	cli.Execute()
}
