// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package test

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"

	"github.com/siemens/turtlenest/hostexec"
)

// Reply is the scripted outcome of a single command line.
type Reply struct {
	Output string
	Err    error
	Do     func(args []string) // optional side effect, such as creating files.
}

// Runner is a scripted [hostexec.Runner]. Script entries ending in "*" match
// all command lines starting with the text before the "*". Command lines
// without a script entry fail, as do lookups of executables not listed in Binaries.
type Runner struct {
	Binaries map[string]string // executable name to path.
	Replies  map[string]Reply  // "name arg1 arg2" to reply.

	mu    sync.Mutex
	calls []string
}

var _ hostexec.Runner = (*Runner)(nil)

// NewRunner returns a new scripted runner with the specified binaries
// "installed" at /usr/bin.
func NewRunner(binaries ...string) *Runner {
	r := &Runner{
		Binaries: map[string]string{},
		Replies:  map[string]Reply{},
	}
	for _, bin := range binaries {
		r.Binaries[bin] = "/usr/bin/" + bin
	}
	return r
}

// On scripts the reply for the specified command line.
func (r *Runner) On(cmdline string, reply Reply) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Replies[cmdline] = reply
	return r
}

// LookPath returns the path of a known executable, or exec.ErrNotFound.
func (r *Runner) LookPath(file string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if path, ok := r.Binaries[file]; ok {
		return path, nil
	}
	return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
}

// Output returns the scripted reply for the command line.
func (r *Runner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmdline := strings.Join(append([]string{name}, args...), " ")
	r.mu.Lock()
	r.calls = append(r.calls, cmdline)
	reply, ok := r.Replies[cmdline]
	if !ok {
		reply, ok = r.prefixReply(cmdline)
	}
	r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("unscripted command: " + cmdline)
	}
	if reply.Do != nil {
		reply.Do(args)
	}
	return []byte(reply.Output), reply.Err
}

// prefixReply returns the reply of a script entry ending in " *" that is a
// prefix of the command line. Callers must hold the lock.
func (r *Runner) prefixReply(cmdline string) (Reply, bool) {
	for script, reply := range r.Replies {
		prefix, ok := strings.CutSuffix(script, "*")
		if !ok {
			continue
		}
		if strings.HasPrefix(cmdline, prefix) {
			return reply, true
		}
	}
	return Reply{}, false
}

// Calls returns the command lines run so far.
func (r *Runner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}
