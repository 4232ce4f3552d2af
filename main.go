package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newCLI(os.Stdout).Exec(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
