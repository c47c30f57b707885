// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package uidmap

import (
	"context"

	"github.com/siemens/turtlenest/hostexec"
	"github.com/siemens/turtlenest/probe"
	"github.com/thediveo/go-plugger/v3"
)

// Register this ID mapping helper probe plugin. This statically ensures that
// the Prober interface is fully implemented.
func init() {
	plugger.Group[probe.Prober]().Register(
		&Prober{}, plugger.WithPlugin("uidmap"))
}

// Prober checks for the setuid “newuidmap” and “newgidmap” helpers that
// rootlesskit needs to map the subordinate ID ranges.
type Prober struct{}

// Probe looks for both ID mapping helpers on PATH.
func (p *Prober) Probe(ctx context.Context, host probe.Host) probe.Result {
	if hostexec.Has(host.Runner, "newuidmap") && hostexec.Has(host.Runner, "newgidmap") {
		return probe.Result{Present: true, Detail: "newuidmap and newgidmap found"}
	}
	return probe.Result{
		Detail:      "newuidmap or newgidmap not found",
		Remediation: installCommands(host.Runner),
	}
}

// installCommands returns the package installation commands for the package
// manager found on the host.
func installCommands(r hostexec.Runner) []string {
	switch {
	case hostexec.Has(r, "apt-get"):
		return []string{"apt-get install -y uidmap"}
	case hostexec.Has(r, "dnf"):
		return []string{"dnf install -y shadow-utils"}
	case hostexec.Has(r, "yum"):
		return []string{
			"curl -o /etc/yum.repos.d/vbatts-shadow-utils-newxidmap-epel-7.repo https://copr.fedorainfracloud.org/coprs/vbatts/shadow-utils-newxidmap/repo/epel-7/vbatts-shadow-utils-newxidmap-epel-7.repo",
			"yum install -y shadow-utils46-newxidmap",
		}
	}
	return []string{"# install the newuidmap and newgidmap binaries using your package manager"}
}
