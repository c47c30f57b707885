// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"strings"

	"github.com/siemens/turtlenest/hostexec"
	"github.com/thediveo/go-plugger/v3"
	"github.com/thediveo/lxkns/log"
	"golang.org/x/exp/slices"
)

// Prober allows specialized capability probe plugins to check the host for
// a particular capability that a rootless container engine needs.
type Prober interface {
	// Probe checks the host for the capability, returning the outcome.
	// Probes must not modify the host.
	Probe(ctx context.Context, host Host) Result
}

// Host describes the host and user to probe.
type Host struct {
	Root   string          // prefix for /etc and /proc paths; empty for the real host.
	User   string          // user name.
	UID    int             // user ID.
	Distro string          // distribution ID from os-release, such as “ubuntu”; might be empty.
	Runner hostexec.Runner // for looking up (and running) host binaries.
}

// Result is the outcome of probing a single capability.
type Result struct {
	Present     bool     // capability is available.
	Optional    bool     // absence does not block installation.
	Detail      string   // human-readable description of what was found.
	Remediation []string // privileged commands to run when absent.
}

// Capabilities maps probe plugin names to their results. Capabilities are
// queried once and then only consulted.
type Capabilities map[string]Result

// Run queries all registered probe plugins and returns their results.
func Run(ctx context.Context, host Host) Capabilities {
	caps := Capabilities{}
	for _, prober := range plugger.Group[Prober]().PluginsSymbols() {
		res := prober.S.Probe(ctx, host)
		log.Debugf("capability %s present: %t (%s)", prober.Plugin, res.Present, res.Detail)
		caps[prober.Plugin] = res
	}
	log.Infof("probed capabilities: %s",
		strings.Join(plugger.Group[Prober]().Plugins(), ", "))
	return caps
}

// Has returns true if the named capability has been probed and found to be
// present.
func (c Capabilities) Has(name string) bool {
	res, ok := c[name]
	return ok && res.Present
}

// Missing returns the sorted names of the required capabilities that are
// absent.
func (c Capabilities) Missing() []string {
	missing := []string{}
	for name, res := range c {
		if res.Present || res.Optional {
			continue
		}
		missing = append(missing, name)
	}
	slices.Sort(missing)
	return missing
}

// Remediation returns the consolidated list of privileged commands to run in
// order to supply all missing required capabilities, in the order of
// [Capabilities.Missing]. Identical remediations of different probes are
// listed only once.
func (c Capabilities) Remediation() []string {
	cmds := []string{}
	seen := []string{}
	for _, name := range c.Missing() {
		block := strings.Join(c[name].Remediation, "\n")
		if block == "" || slices.Contains(seen, block) {
			continue
		}
		seen = append(seen, block)
		cmds = append(cmds, c[name].Remediation...)
	}
	return cmds
}
