package main

import (
	"os"

	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
