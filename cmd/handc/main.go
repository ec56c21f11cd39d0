package main

import (
	"fmt"
	"os"

	"github.com/hand-lang/handc/internal/cli/commands"
)

// Version is set at build time.
var Version = "dev"

func main() {
	root := commands.NewRootCommand(Version)

	if err := root.Execute(); err != nil {
		if exit, ok := err.(*commands.ExitError); ok {
			fmt.Fprintln(os.Stderr, exit.Msg)
			os.Exit(exit.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
