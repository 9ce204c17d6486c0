package main

import (
	"os"

	"github.com/rustyeddy/flashbot/cmd/flashbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
