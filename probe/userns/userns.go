// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package userns

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/siemens/turtlenest/probe"
	"github.com/thediveo/go-plugger/v3"
)

// Register the user namespace kernel knob probe plugins.
func init() {
	plugger.Group[probe.Prober]().Register(
		&CloneProber{}, plugger.WithPlugin("userns-clone"))
	plugger.Group[probe.Prober]().Register(
		&MaxProber{}, plugger.WithPlugin("max-user-namespaces"))
}

const (
	cloneKnob = "/proc/sys/kernel/unprivileged_userns_clone" // Debian-specific.
	maxKnob   = "/proc/sys/user/max_user_namespaces"
)

// CloneProber checks that Debian's “kernel.unprivileged_userns_clone” knob, if
// present, allows unprivileged users to create user namespaces.
type CloneProber struct{}

// Probe reads the knob; a missing knob means there is nothing to restrict
// unprivileged user namespaces in the first place.
func (p *CloneProber) Probe(ctx context.Context, host probe.Host) probe.Result {
	value, err := readKnob(host.Root + cloneKnob)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return probe.Result{Present: true, Detail: "no unprivileged_userns_clone knob"}
	case err != nil:
		return probe.Result{Present: true, Detail: "unprivileged_userns_clone unreadable: " + err.Error()}
	case value == "1":
		return probe.Result{Present: true, Detail: "unprivileged_userns_clone=1"}
	}
	return probe.Result{
		Detail: "unprivileged_userns_clone=" + value,
		Remediation: []string{
			"cat <<EOT > /etc/sysctl.d/50-rootless.conf",
			"kernel.unprivileged_userns_clone = 1",
			"EOT",
			"sysctl --system",
		},
	}
}

// MaxProber checks that the number of user namespaces hasn't been limited to
// zero, as it is the case on RHEL/CentOS 7.
type MaxProber struct{}

// Probe reads the knob; only an explicit zero is considered to be a missing
// capability.
func (p *MaxProber) Probe(ctx context.Context, host probe.Host) probe.Result {
	value, err := readKnob(host.Root + maxKnob)
	if err != nil || value != "0" {
		return probe.Result{Present: true, Detail: "max_user_namespaces=" + value}
	}
	return probe.Result{
		Detail: "max_user_namespaces=0",
		Remediation: []string{
			"cat <<EOT > /etc/sysctl.d/51-rootless.conf",
			"user.max_user_namespaces = 28633",
			"EOT",
			"sysctl --system",
		},
	}
}

func readKnob(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
