// Command wve compares and synthesizes worldview JSON files.
package main

import (
	"fmt"
	"os"

	"github.com/bierlingm/worldview-extractor/internal/config"
)

func main() {
	_ = config.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
