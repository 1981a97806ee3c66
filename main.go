// The introsim command runs an urgent care call centre simulation from the
// command line. CLI handling lives in the Cobra commands under cmd.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/pythonhealthdatascience/intro-open-sim/cmd"
)

func main() {
	cmd.Execute()

	// Exiting through atexit runs the registered recorder flushes.
	atexit.Exit(0)
}
