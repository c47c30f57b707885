// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package turtlenest

import (
	"errors"
	"strings"
)

// Kind classifies installation failures.
type Kind int

// Failure kinds.
const (
	// Environment failures, such as the wrong platform, a privileged user or
	// missing directories.
	Environment Kind = iota + 1
	// Capability failures: the host lacks capabilities that only an
	// administrator can supply.
	Capability
	// Transient failures, such as failed downloads and extractions.
	Transient
	// Conflict failures: an accessible system-wide engine is in the way.
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Environment:
		return "environment"
	case Capability:
		return "capability"
	case Transient:
		return "transient"
	case Conflict:
		return "conflict"
	}
	return "unknown"
}

// Error is an installation failure of a particular kind. Capability failures
// carry a consolidated list of privileged commands to run out-of-band.
type Error struct {
	Kind        Kind
	Msg         string
	Remediation []string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ", reason: " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Hint returns the remediation lines, if any, as a single text block.
func (e *Error) Hint() string { return strings.Join(e.Remediation, "\n") }

func newError(kind Kind, msg string, err error, remediation ...string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err, Remediation: remediation}
}

// KindOf returns the kind of the specified error, or zero if it isn't an
// installation failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// ExitCode returns the process exit code for the outcome of an installer run:
// zero for success (including an already existing installation), one for any
// failure.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
