package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dshills/healthaudit/internal/engine"
	"github.com/spf13/cobra"
)

var version = engine.Version

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "healthaudit",
		Short:         "Score ecosystem health against benchmarks and track it over time",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newDomainsCmd())
	return root
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(stderr, ee.msg)
			return ee.code
		}
		fmt.Fprintln(stderr, err)
		return 3
	}
	return 0
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}
