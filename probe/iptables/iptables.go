// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package iptables

import (
	"context"

	"github.com/siemens/turtlenest/hostexec"
	"github.com/siemens/turtlenest/probe"
	"github.com/thediveo/go-plugger/v3"
)

// Name of this plugin, as used to query the probed capabilities.
const Name = "iptables"

func init() {
	plugger.Group[probe.Prober]().Register(
		&Prober{}, plugger.WithPlugin(Name))
}

// Prober checks for the iptables binary. Its absence isn't fatal: the engine
// then gets started with its firewall integration disabled.
type Prober struct{}

func (p *Prober) Probe(ctx context.Context, host probe.Host) probe.Result {
	if hostexec.Has(host.Runner, "iptables") {
		return probe.Result{Present: true, Optional: true, Detail: "iptables found"}
	}
	return probe.Result{
		Optional: true,
		Detail:   "iptables not found, disabling firewall integration",
	}
}
