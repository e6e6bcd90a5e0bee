package main

import (
	"fmt"
	"os"

	"github.com/plotset-corp/migration-gl-to-gh/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the repository migration command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
