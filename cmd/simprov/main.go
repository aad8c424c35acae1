package main

import (
	"os"

	"github.com/SeJohnEff/simprov/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
