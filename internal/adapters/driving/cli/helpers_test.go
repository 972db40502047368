package cli

import (
	"bytes"
	"io"
	"strings"
)

// execute runs the root command with args and returns what it wrote.
func execute(args ...string) (stdout, stderr string, err error) {
	return executeWithInput("", args...)
}

// executeWithInput runs the root command reading input from stdin.
func executeWithInput(input string, args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	var in io.Reader = strings.NewReader(input)

	rootCmd.SetIn(in)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)

	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}
