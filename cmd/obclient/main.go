package main

import (
	"os"

	"rollup_book/cmd/obclient/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
