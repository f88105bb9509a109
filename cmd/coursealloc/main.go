// Package main is the coursealloc command.
package main

import "github.com/mesh-intelligence/coursealloc/internal/cli"

func main() {
	cli.Execute()
}
