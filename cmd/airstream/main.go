package main

import (
	"os"

	"airstream/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
