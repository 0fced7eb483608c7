package main

import (
	"os"

	"github.com/dairychain-dev/dairychain/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
