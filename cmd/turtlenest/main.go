// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

// turtlenest installs a rootless Docker engine into the home directory of the
// calling unprivileged user.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/siemens/turtlenest"

	_ "github.com/thediveo/lxkns/log/logrus" // log via logrus
)

// interruptSignals cancel a running installation.
var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the installer CLI with the specified arguments, returning the
// process exit code. Interrupting or terminating the installer cancels the
// context, so that the scratch directories still get cleaned up.
func execute(args []string) int {
	ctx, stop := interruptible()
	defer stop()
	root := newRootCmd(os.Stdout, os.Stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		reportError(root.ErrOrStderr(), err)
	}
	return turtlenest.ExitCode(err)
}

// interruptible returns a context that gets cancelled when the installer
// receives one of the interrupt signals.
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), interruptSignals...)
}
