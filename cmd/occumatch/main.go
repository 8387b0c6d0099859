// Command occumatch matches job descriptions to occupation codes from the
// command line, either in-process or against a running API over NATS.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
