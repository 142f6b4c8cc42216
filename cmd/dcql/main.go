package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
