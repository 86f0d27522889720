package main

import (
	"os"

	"github.com/dmitrijs2005/statsync/internal/client/cli"
)

func main() {
	os.Exit(cli.Main())
}
