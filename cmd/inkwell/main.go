package main

import (
	"os"

	"github.com/inkwell-dms/inkwell/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
