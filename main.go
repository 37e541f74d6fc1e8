package main

import (
	"os"

	"github.com/themislegal/themis/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
