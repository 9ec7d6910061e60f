// Package main is the entry point for the rawlink CLI.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/rawlink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
