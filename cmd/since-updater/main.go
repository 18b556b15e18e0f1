package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	sinceupdater "github.com/thrawn01/since-updater"
)

func main() {
	if err := sinceupdater.RunCmd(os.Args, nil); err != nil {
		_, _ = color.New(color.FgRed).Fprint(os.Stderr, "\n❌ Error: ")
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
