// Package main provides the maestro binary entry point.
// Maestro is a deterministic pair-programming workflow engine: it profiles a
// workspace's tech stack, classifies tasks, and drives approved plans
// through a gated execution pipeline.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/maestrohq/maestro/commands"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := commands.Root(Version, BuildTime).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
