// flowctl is the command-line front end for the flowengine job system.
package main

import (
	"fmt"
	"os"

	"github.com/nuulab/flowengine/cmd/flowctl/cmd"

	_ "github.com/nuulab/flowengine/internal/jobs"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
