// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

/*
Package storage chooses the storage driver of the rootless engine. The overlay
driver is preferred, but only if mounting an overlay filesystem inside a user
namespace actually works; otherwise, the engine falls back to the
universally supported but slow vfs passthrough driver.
*/
package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/siemens/turtlenest/hostexec"
	"github.com/thediveo/lxkns/log"
	"golang.org/x/exp/slices"
)

// Well-known storage driver names.
const (
	Overlay2 = "overlay2"
	VFS      = "vfs"
)

// OSRelease is the path of the os-release file.
const OSRelease = "/etc/os-release"

// Prober probes for overlay filesystem support in user namespaces.
type Prober struct {
	Runner     hostexec.Runner
	BinDir     string // directory with the installed rootlesskit, if any.
	ScratchDir string // parent directory for the probe's scratch directory; empty for the default.
	Root       string // prefix for the os-release path; empty for the real host.
}

// Choose returns the name of the storage driver to use. If the overlay mount
// probe cannot be carried out at all for lack of a helper, the choice falls
// back to a distribution heuristic: Ubuntu kernels allow overlay mounts in
// user namespaces.
func (p *Prober) Choose(ctx context.Context) string {
	ok, err := p.ProbeOverlay(ctx)
	if err == nil {
		if ok {
			return Overlay2
		}
		return VFS
	}
	log.Debugf("overlay probe not possible, reason: %s", err.Error())
	if IsUbuntu(p.Root + OSRelease) {
		log.Infof("assuming overlay support on Ubuntu")
		return Overlay2
	}
	return VFS
}

// ProbeOverlay tries to mount a throw-away overlay filesystem inside a user
// and mount namespace, returning true if the mount succeeded. The mount
// vanishes together with the namespaces, and the scratch directory is removed
// in any case. An error is returned only if no helper for creating the
// namespaces is available, the scratch directory cannot be set up, or the
// context gets cancelled while probing.
func (p *Prober) ProbeOverlay(ctx context.Context) (bool, error) {
	helper, err := p.helper()
	if err != nil {
		return false, err
	}
	scratch, err := os.MkdirTemp(p.ScratchDir, "turtlenest-overlay-*")
	if err != nil {
		return false, err
	}
	defer os.RemoveAll(scratch)
	for _, dir := range []string{"lower", "upper", "work", "merged"} {
		if err := os.Mkdir(filepath.Join(scratch, dir), 0o700); err != nil {
			return false, err
		}
	}
	args := append(slices.Clone(helper[1:]),
		"mount", "-t", "overlay", "overlay",
		"-o", "lowerdir="+filepath.Join(scratch, "lower")+
			",upperdir="+filepath.Join(scratch, "upper")+
			",workdir="+filepath.Join(scratch, "work"),
		filepath.Join(scratch, "merged"))
	if out, err := p.Runner.Output(ctx, helper[0], args...); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		log.Infof("overlay mount probe failed: %s", strings.TrimSpace(string(out)))
		return false, nil
	}
	log.Infof("overlay mount probe succeeded")
	return true, nil
}

// helper returns the command line prefix for running a command inside fresh
// user and mount namespaces, preferring the installed rootlesskit.
func (p *Prober) helper() ([]string, error) {
	if p.BinDir != "" {
		rootlesskit := filepath.Join(p.BinDir, "rootlesskit")
		if info, err := os.Stat(rootlesskit); err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0 {
			return []string{rootlesskit}, nil
		}
	}
	unshare, err := p.Runner.LookPath("unshare")
	if err != nil {
		return nil, err
	}
	return []string{unshare, "--user", "--map-root-user", "--mount"}, nil
}

// Distro returns the distribution ID and the IDs of related distributions as
// specified in the os-release file at the specified path.
func Distro(osrelease string) (id string, like []string) {
	env, err := godotenv.Read(osrelease)
	if err != nil {
		return "", nil
	}
	return strings.ToLower(env["ID"]), strings.Fields(strings.ToLower(env["ID_LIKE"]))
}

// IsUbuntu returns true if the os-release file identifies Ubuntu or an Ubuntu
// derivative.
func IsUbuntu(osrelease string) bool {
	id, like := Distro(osrelease)
	if id == "ubuntu" {
		return true
	}
	return slices.Contains(like, "ubuntu")
}
