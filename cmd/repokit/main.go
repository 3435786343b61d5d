// Command repokit reads and writes records of CUE-described entities.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/repokit/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
