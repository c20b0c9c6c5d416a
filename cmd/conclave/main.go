// Command conclave runs multi-agent reasoning patterns over a SQLite store.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/conclave/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
