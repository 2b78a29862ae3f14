package main

import (
	"os"

	"github.com/jonesrussell/storetrust/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
