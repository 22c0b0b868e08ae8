// seasonctl fetches and processes season data into the cache outside the
// worker pipeline.
package main

import (
	"os"

	"f1-pitwall/internal/shared/logs"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		logs.Error("seasonctl failed", "error", err)
		os.Exit(1)
	}
}
