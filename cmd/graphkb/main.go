// Package main provides the graphkb command line tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/bcgsc/pori-graphkb-core/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Command output (including formatted errors) is already written;
		// cobra-level errors like unknown flags still need reporting here.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
