package main

import (
	"os"

	"github.com/marut/grasp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
