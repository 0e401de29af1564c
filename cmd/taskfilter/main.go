// Command taskfilter validates, compiles and runs typed task-board filters.
//
// Usage:
//
//	taskfilter operators [type]
//	taskfilter validate <board> [filters]
//	taskfilter compile <board> [filters] [--filter name] [-o file] [--strict]
//	taskfilter run <board> [filters] [--db path] [--filter name] [--saved id] [--save]
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/taskboard/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			// Usage errors from cobra: bad flags or argument counts.
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(cli.ExitCommandError)
		}
		os.Exit(exitErr.Code)
	}
}
