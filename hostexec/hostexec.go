// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

/*
Package hostexec runs host commands on behalf of the installer, such as
“systemctl --user …” and the overlay mount probe. Everything that needs to
talk to host binaries goes through a [Runner], so that tests can swap in a
scripted fake.
*/
package hostexec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/thediveo/lxkns/log"
)

// Runner looks up and runs host commands.
type Runner interface {
	// LookPath searches for an executable in the directories named by PATH.
	LookPath(file string) (string, error)

	// Output runs the named command with the specified arguments and returns
	// its combined stdout and stderr output. A non-zero exit status is
	// reported as an error.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Host runs commands on the host using os/exec.
type Host struct {
	Env []string // optional environment; nil inherits the installer's environment.
}

var _ Runner = (*Host)(nil)

// LookPath searches for an executable in the directories named by PATH.
func (h *Host) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Output runs the named command, returning its combined output.
func (h *Host) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if h.Env != nil {
		cmd.Env = h.Env
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	log.Debugf("running %s %s", name, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return out.Bytes(), fmt.Errorf("command %q failed, reason: %w", name, err)
	}
	return out.Bytes(), nil
}

// Has returns true if the named executable can be found using the specified
// runner.
func Has(r Runner, file string) bool {
	_, err := r.LookPath(file)
	return err == nil
}
