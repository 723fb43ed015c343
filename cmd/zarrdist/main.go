/*
This is the entrypoint for the zarrdist binary.
*/
package main

import (
	"fmt"
	"os"

	"github.com/qri-io/zarrdist/cmd"
)

func main() {
	rootCmd := cmd.NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
