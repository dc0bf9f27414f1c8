package main

import (
	"os"

	"github.com/psantana5/fnenhance/cmd/fnenhance/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
