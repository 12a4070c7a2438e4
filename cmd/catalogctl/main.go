// Command catalogctl runs product imports, exports and template generation
// from a terminal against any configured store backend.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
