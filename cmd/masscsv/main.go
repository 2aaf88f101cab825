// Command masscsv views, searches, and edits massive delimiter-separated
// text files without loading them into memory.
package main

import (
	"fmt"
	"os"

	"github.com/massive-csv/massivecsv/cmd/masscsv/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "masscsv:", err)
		os.Exit(cmd.ExitCode(err))
	}
}
