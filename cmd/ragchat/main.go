package main

import (
	"os"

	"ragchat/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
