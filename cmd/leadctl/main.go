package main

import (
	"os"

	"github.com/leadvett/backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
