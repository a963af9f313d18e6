// Command covidctl loads the COVID spatiotemporal dataset and prints, exports
// or serves it.
//
// Usage:
//
//	covidctl [flags] summary
//	covidctl [flags] export [--pg] [--ch] [--file path] [--s3]
//	covidctl [flags] serve
package main

import (
	"fmt"
	"os"

	"covidsignal/cmd/covidctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
