package main

import (
	"os"

	"github.com/reploy-cli/reploy/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
