// Command reform fills, serves and builds multi-page forms.
package main

import (
	"fmt"
	"os"
)

var version = "0.1.0"

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
