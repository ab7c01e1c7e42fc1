package main

import (
	"fmt"
	"io"
)

var usages = map[string]string{
	CmdNameResolve: HelpResolveUsage,
	CmdNameParse:   HelpParseUsage,
	CmdNameVersion: HelpVersionUsage,
	CmdNameHelp:    HelpHelpUsage,
}

// runHelp prints the usage of args[0], or the main usage without arguments
func runHelp(args []string, stdout io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stdout, HelpMainUsage)
		return ExitCodeSuccess
	}
	if usage, ok := usages[args[0]]; ok {
		fmt.Fprintln(stdout, usage)
		return ExitCodeSuccess
	}
	fmt.Fprintf(stdout, FmtErrorWithDetail, ErrMsgUnknownCommand, args[0])
	fmt.Fprintln(stdout, HelpMainUsage)
	return ExitCodeUsageError
}
