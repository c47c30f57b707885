// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package turtlenest

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/siemens/turtlenest/unit"
)

// PrintExisting reports an existing installation together with how to
// reinstall it, followed by the usual usage instructions.
func PrintExisting(w io.Writer, c *Config, reg *Registration) {
	fmt.Fprintf(w, "# Existing rootless Docker detected at %s\n", c.DaemonPath())
	fmt.Fprintln(w, "#")
	fmt.Fprintln(w, "# To reinstall or upgrade rootless Docker, run the following commands and then rerun the installer:")
	if c.Supervisor != nil {
		fmt.Fprintf(w, "systemctl --user stop %s\n", unit.ServiceName)
	}
	fmt.Fprintf(w, "rm -f %s\n", c.DaemonPath())
	fmt.Fprintln(w)
	PrintInstructions(w, c, reg)
}

// PrintInstructions prints how to control the rootless engine and which
// environment variables the user needs to export.
func PrintInstructions(w io.Writer, c *Config, reg *Registration) {
	fmt.Fprintf(w, "# Docker binaries are installed in %s\n", c.BinDir)
	if !InPath(c.Path, c.BinDir) {
		fmt.Fprintf(w, "# WARNING: %s is not in your current PATH\n", c.BinDir)
	}
	fmt.Fprintln(w, "#")
	if reg.Supervised && c.Supervisor != nil {
		if reg.Status != "" {
			for _, line := range strings.Split(reg.Status, "\n") {
				fmt.Fprintf(w, "# %s\n", line)
			}
			fmt.Fprintln(w, "#")
		}
		if reg.Customized {
			fmt.Fprintf(w, "# NOTE: kept your changes to %s, which differs from the\n", reg.UnitPath)
			fmt.Fprintln(w, "# generated service descriptor; its daemon flags might be outdated")
			fmt.Fprintln(w, "#")
		}
		fmt.Fprintf(w, "# To control the %s service run:\n", unit.ServiceName)
		fmt.Fprintf(w, "# %s\n", c.Supervisor.ControlHint(unit.ServiceName))
	} else {
		fmt.Fprintf(w, "# Run the following command to start the Docker service:\n")
		fmt.Fprintln(w, ManualStart(c, reg.Flags))
	}
	fmt.Fprintln(w, "#")
	fmt.Fprintln(w, "# Make sure the following environment variables are set (or add them to ~/.bashrc):")
	for _, env := range ExportedEnv(c) {
		fmt.Fprintf(w, "export %s\n", env)
	}
}

// ManualStart returns the command line for starting the rootless engine
// manually.
func ManualStart(c *Config, flags []string) string {
	cmd := "PATH=" + c.BinDir + ":/sbin:/usr/sbin:$PATH " + unit.DaemonLauncher
	if len(flags) > 0 {
		cmd += " " + strings.Join(flags, " ")
	}
	return cmd
}

// ExportedEnv returns the advisory environment variable assignments for using
// the rootless engine. The installer's own environment is never changed.
func ExportedEnv(c *Config) []string {
	return []string{
		"PATH=" + c.BinDir + ":$PATH",
		"DOCKER_HOST=" + c.DockerHost(),
	}
}

// InPath returns true if dir is one of the directories in the search path.
func InPath(path string, dir string) bool {
	dir = filepath.Clean(dir)
	for _, p := range filepath.SplitList(path) {
		if p != "" && filepath.Clean(p) == dir {
			return true
		}
	}
	return false
}
