package main

import (
	"os"

	"github.com/canal-org/canal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
