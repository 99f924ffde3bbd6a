// Command manode runs a storage node in the replicated file network.
package main

import (
	"fmt"
	"os"

	"github.com/timokae/ma-node/cmd/manode/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
