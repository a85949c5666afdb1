// The main package for the keno-monitor executable.
package main

import (
	"github.com/JakeFAU/keno-monitor/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
