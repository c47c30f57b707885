// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package turtlenest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/siemens/turtlenest/engine"
	"github.com/thediveo/lxkns/log"
	"golang.org/x/sys/unix"
)

// Preconditions is the outcome of a successful precondition check.
type Preconditions struct {
	// Installed is true when a previous installation has been detected; the
	// installer then only reports the current configuration.
	Installed bool
}

// Check verifies the preconditions for a rootless installation, in order from
// cheap and most fatal to expensive and most informative. The first failing
// check ends the whole check with an [Error]; only missing host capabilities
// are reported together in a single [Capability] error. Check doesn't modify
// the file system, except for creating the private fallback runtime
// directory if necessary.
func Check(ctx context.Context, c *Config) (Preconditions, error) {
	if c.OS != "linux" {
		return Preconditions{}, newError(Environment,
			fmt.Sprintf("rootless Docker cannot be installed on %s", c.OS), nil)
	}
	if c.EUID == 0 {
		return Preconditions{}, newError(Environment,
			"refusing to install rootless Docker as root; run the installer as the unprivileged user who will use Docker", nil)
	}
	if c.EngineURL == "" || c.ExtrasURL == "" {
		return Preconditions{}, newError(Environment,
			fmt.Sprintf("rootless Docker cannot be installed on %s/%s; specify the archive locations explicitly", c.OS, c.Arch), nil)
	}
	if c.Home == "" || !isDir(c.Home) {
		return Preconditions{}, newError(Environment,
			fmt.Sprintf("home directory %q does not exist; set HOME to an existing directory", c.Home), nil)
	}
	if err := checkBinDir(c); err != nil {
		return Preconditions{}, err
	}
	if err := checkRootful(ctx, c); err != nil {
		return Preconditions{}, err
	}
	if err := checkRuntimeDir(c); err != nil {
		return Preconditions{}, err
	}
	if IsInstalled(c) {
		log.Infof("existing rootless Docker detected at %s", c.DaemonPath())
		return Preconditions{Installed: true}, nil
	}
	if missing := c.Caps.Missing(); len(missing) > 0 {
		return Preconditions{}, newError(Capability,
			fmt.Sprintf("missing system requirements: %v; run the following commands with root privileges and then run this installer again", missing),
			nil, c.Caps.Remediation()...)
	}
	return Preconditions{}, nil
}

// checkBinDir checks that the installation directory is writable or can be
// created.
func checkBinDir(c *Config) error {
	if _, err := os.Stat(c.BinDir); err == nil {
		if !writableDir(c.BinDir) {
			return newError(Environment,
				fmt.Sprintf("installation directory %s is not a writable directory; make it writable or choose another one", c.BinDir), nil)
		}
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return newError(Environment,
			fmt.Sprintf("cannot access installation directory %s", c.BinDir), err)
	}
	parent := filepath.Dir(c.BinDir)
	if !writableDir(parent) {
		return newError(Environment,
			fmt.Sprintf("cannot create installation directory %s because %s is not writable; choose another installation directory", c.BinDir, parent), nil)
	}
	return nil
}

// checkRootful fails when a system-wide engine is accessible to the user,
// unless forced.
func checkRootful(ctx context.Context, c *Config) error {
	api := c.Root + c.RootfulAPI
	ep, err := engine.Probe(ctx, api)
	if err != nil {
		log.Debugf("no accessible system-wide engine at %s: %s", api, err.Error())
		return nil
	}
	if c.Force {
		log.Infof("ignoring accessible system-wide engine at %s (PID %d)", ep.API, ep.PID)
		return nil
	}
	what := fmt.Sprintf("system-wide Docker %s is running and accessible at %s", ep.Version, ep.API)
	if ep.PID != 0 {
		what += fmt.Sprintf(" (PID %d)", ep.PID)
	}
	return newError(Conflict,
		"aborting because "+what+"; stop it or set FORCE_ROOTLESS_INSTALL=1 to ignore", nil)
}

// checkRuntimeDir makes sure that there is a writable runtime directory:
// with a service supervisor, it must already exist, as the supervisor is
// supposed to provide it. Otherwise, the private fallback runtime directory
// gets created if necessary.
func checkRuntimeDir(c *Config) error {
	if c.RuntimeFallback {
		if err := os.MkdirAll(c.RuntimeDir, 0o700); err != nil {
			return newError(Environment,
				fmt.Sprintf("cannot create private runtime directory %s", c.RuntimeDir), err)
		}
		if err := os.Chmod(c.RuntimeDir, 0o700); err != nil {
			return newError(Environment,
				fmt.Sprintf("cannot restrict private runtime directory %s", c.RuntimeDir), err)
		}
		log.Infof("using private runtime directory %s", c.RuntimeDir)
		return nil
	}
	if c.RuntimeDir != "" && writableDir(c.RuntimeDir) {
		return nil
	}
	return newError(Environment,
		fmt.Sprintf("aborting because %s was detected but XDG_RUNTIME_DIR (%q) is not set, does not exist, or is not writable", supervisorName(c), c.RuntimeDir),
		nil,
		"# This could happen if you changed users with 'su' or 'sudo'. To work around this:",
		fmt.Sprintf("# - run 'loginctl enable-linger %s' with root privileges and export XDG_RUNTIME_DIR", c.User),
		fmt.Sprintf("#   to the value of RuntimePath as shown by 'loginctl show-user %s'", c.User),
		"# - or simply log back in as the desired unprivileged user (ssh works for remote machines)")
}

func supervisorName(c *Config) string {
	if c.Supervisor == nil {
		return "a service supervisor"
	}
	return c.Supervisor.Name()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// writableDir returns true if path is a directory the installer may create
// entries in.
func writableDir(path string) bool {
	return isDir(path) && unix.Access(path, unix.W_OK|unix.X_OK) == nil
}

// isExecutable returns true if path is a regular file the installer may
// execute.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return unix.Access(path, unix.X_OK) == nil
}

// IsInstalled returns true if the engine daemon binary is present in the
// installation directory.
func IsInstalled(c *Config) bool {
	return isExecutable(c.DaemonPath())
}
