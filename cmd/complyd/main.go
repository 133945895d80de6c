// Command complyd tracks compliance checklist status and keeps a
// machine-generated task list in sync with it.
package main

import (
	"errors"
	"fmt"
	"os"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// exitError carries a non-zero exit code out of a RunE function so that
// deferred cleanup and the root command's PersistentPostRun still execute
// before the process exits.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// exitErr builds an exit-code-1 error for commands that report partial
// failure after printing their results.
func exitErr(format string, args ...interface{}) error {
	return &exitError{code: 1, msg: fmt.Sprintf(format, args...)}
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.msg != "" {
			fmt.Fprintln(os.Stderr, ee.msg)
		}
		os.Exit(ee.code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
