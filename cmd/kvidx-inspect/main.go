// Command kvidx-inspect is an operator CLI/TUI over a kvidx store.
package main

import (
	"fmt"
	"os"

	"github.com/Dicklesworthstone/kvidx/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
