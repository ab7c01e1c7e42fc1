package main

import (
	"io"
	"os"
)

// command runs one subcommand and returns the process exit code
type command func(args []string, stdin io.Reader, stdout, stderr io.Writer) int

var commands = map[string]command{
	CmdNameResolve: runResolve,
	CmdNameParse:   runParse,
	CmdNameVersion: func(args []string, _ io.Reader, stdout, stderr io.Writer) int {
		return runVersion(args, stdout, stderr)
	},
	CmdNameHelp: func(args []string, _ io.Reader, stdout, _ io.Writer) int {
		return runHelp(args, stdout)
	},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches to a subcommand. Without arguments it prints the main
// usage; an unknown name falls through to help, which reports it.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		return runHelp(nil, stdout)
	}
	if cmd, ok := commands[args[0]]; ok {
		return cmd(args[1:], stdin, stdout, stderr)
	}
	return runHelp(args[:1], stdout)
}
