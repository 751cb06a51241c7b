package main

import (
	"os"

	"github.com/5ys-5y5/alsign-sub001/cmd/alsign/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
