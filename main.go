// file: main.go
// version: 2.0.0
// guid: 54eaedbf-e1ac-4964-b9c5-3826f1a1e003

package main

import (
	"fmt"
	"os"

	"github.com/jdfalk/cliqbook/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
