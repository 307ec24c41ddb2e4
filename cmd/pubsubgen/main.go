// Command pubsubgen generates publish/subscribe benchmark workloads.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/pubsubgen/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()

	// Errors carrying a LoadError were already written by the command's formatter.
	var loadErr *cli.LoadError
	if err != nil && !errors.As(err, &loadErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
