package main

import (
	"os"

	"github.com/synthizer/synthizer-rust-rewrite/internal/cli"
)

func main() {
	c := cli.NewCLI()
	os.Exit(c.Run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}
