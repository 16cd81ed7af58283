package main

import (
	"os"

	"github.com/askvid/askvid/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
