package main

import (
	"os"

	"github.com/bitnetd/bitnetd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
