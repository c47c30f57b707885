// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package turtlenest

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/siemens/turtlenest/engine"
	"github.com/siemens/turtlenest/fetch"
	"github.com/siemens/turtlenest/hostexec"
	"github.com/siemens/turtlenest/probe"
	"github.com/siemens/turtlenest/storage"
	"github.com/siemens/turtlenest/supervisor"
	"github.com/thediveo/lxkns/log"

	_ "github.com/siemens/turtlenest/probe/all"      // pull in capability probe plugins
	_ "github.com/siemens/turtlenest/supervisor/all" // pull in supervisor plugins
)

// DefaultVersion is the Docker engine version installed by default.
const DefaultVersion = "28.5.2"

// DefaultFallbackRuntimeBase is the parent directory of the private runtime
// directory created when there's neither a usable XDG_RUNTIME_DIR nor a
// service supervisor.
const DefaultFallbackRuntimeBase = "/tmp"

// Daemon is the name of the engine daemon binary whose presence in the
// installation directory marks a completed installation.
const Daemon = "dockerd"

// DescriptorPolicy controls how an existing service descriptor is treated.
// Existing descriptors are never overwritten.
type DescriptorPolicy string

// Descriptor policies.
const (
	// KeepDescriptor leaves an existing descriptor untouched, but still makes
	// sure that the service is started.
	KeepDescriptor DescriptorPolicy = "keep"
	// SkipService leaves both an existing descriptor and its service alone.
	SkipService DescriptorPolicy = "skip"
)

// ParseDescriptorPolicy returns the descriptor policy for its textual
// representation; an empty string means the default [KeepDescriptor].
func ParseDescriptorPolicy(s string) (DescriptorPolicy, error) {
	switch DescriptorPolicy(s) {
	case "", KeepDescriptor:
		return KeepDescriptor, nil
	case SkipService:
		return SkipService, nil
	}
	return "", fmt.Errorf("invalid descriptor policy %q, must be %q or %q",
		s, KeepDescriptor, SkipService)
}

// Config is the installer configuration, computed once by [New] from the
// environment and options. Stages only read a Config, they never modify it.
type Config struct {
	OS   string // host operating system, as in runtime.GOOS.
	Arch string // host architecture, as in runtime.GOARCH.

	EUID int    // effective user ID.
	UID  int    // real user ID.
	User string // user name.
	Home string // home directory.
	Path string // search PATH of the installer.

	BinDir          string // installation directory.
	RuntimeDir      string // per-user runtime directory.
	RuntimeFallback bool   // RuntimeDir is the private fallback to be created.

	Root       string // prefix for /etc and /proc lookups; empty for the real host.
	ScratchDir string // parent for scratch directories; empty for the default.
	RootfulAPI string // API endpoint of a system-wide engine.

	EngineURL    string // location of the static engine archive.
	ExtrasURL    string // location of the rootless extras archive.
	EngineDigest string // optional SHA-256 of the engine archive.
	ExtrasDigest string // optional SHA-256 of the extras archive.

	Policy        DescriptorPolicy
	StorageDriver string // storage driver override; empty for probing.
	SkipIptables  bool   // disable firewall integration regardless of iptables.
	Force         bool   // install even if a system-wide engine is accessible.
	Enable        bool   // enable the service to start on login.
	VerifyTimeout time.Duration

	Distro     string                // os-release distribution ID.
	Caps       probe.Capabilities    // cached capability probe results.
	Supervisor supervisor.Supervisor // nil if unsupervised.
	Runner     hostexec.Runner
	Fetcher    *fetch.Fetcher

	getenv           func(string) string
	fallbackBase     string
	supervisorProbed bool
	capsProbed       bool
}

// New returns the installer configuration for the current user and host,
// customized by the specified options. New queries the service supervisor and
// host capabilities once; on other platforms than Linux, it doesn't probe at
// all. New doesn't modify the file system.
func New(ctx context.Context, opts ...NewOption) *Config {
	c := &Config{
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		EUID:          os.Geteuid(),
		UID:           os.Getuid(),
		RootfulAPI:    engine.RootfulAPI,
		Policy:        KeepDescriptor,
		VerifyTimeout: 30 * time.Second,
		getenv:        os.Getenv,
		fallbackBase:  DefaultFallbackRuntimeBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Home == "" {
		c.Home = c.getenv("HOME")
	}
	if c.Path == "" {
		c.Path = c.getenv("PATH")
	}
	if c.User == "" {
		c.User = userName(c.UID, c.getenv)
	}
	if c.BinDir == "" && c.Home != "" {
		c.BinDir = filepath.Join(c.Home, "bin")
	}
	if c.EngineURL == "" && c.ExtrasURL == "" {
		c.EngineURL, c.ExtrasURL, _ = ArchiveURLs(DefaultVersion, c.Arch)
	}
	if c.Runner == nil {
		c.Runner = &hostexec.Host{}
	}
	if c.Fetcher == nil {
		c.Fetcher = &fetch.Fetcher{}
	}
	if c.OS == "linux" {
		c.Distro, _ = storage.Distro(c.Root + storage.OSRelease)
		if !c.supervisorProbed {
			c.Supervisor = supervisor.Find(ctx, c.Runner)
		}
		if !c.capsProbed {
			c.Caps = probe.Run(ctx, probe.Host{
				Root:   c.Root,
				User:   c.User,
				UID:    c.UID,
				Distro: c.Distro,
				Runner: c.Runner,
			})
		}
	}
	c.RuntimeDir = c.getenv("XDG_RUNTIME_DIR")
	if (c.RuntimeDir == "" || !writableDir(c.RuntimeDir)) && c.Supervisor == nil {
		c.RuntimeDir = FallbackRuntimeDir(c.fallbackBase, c.UID)
		c.RuntimeFallback = true
	}
	log.Debugf("configuration: bin dir %s, runtime dir %s (fallback: %t), user %s (%d)",
		c.BinDir, c.RuntimeDir, c.RuntimeFallback, c.User, c.UID)
	return c
}

// FallbackRuntimeDir returns the deterministic private runtime directory path
// for the specified user ID below base.
func FallbackRuntimeDir(base string, uid int) string {
	return filepath.Join(base, "docker-"+strconv.Itoa(uid))
}

// ArchiveURLs returns the download locations of the static engine archive and
// the rootless extras archive for the specified engine version and Go
// architecture name. It returns false for architectures without rootless
// extras.
func ArchiveURLs(version string, goarch string) (engineURL, extrasURL string, ok bool) {
	var arch string
	switch goarch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	default:
		return "", "", false
	}
	base := "https://download.docker.com/linux/static/stable/" + arch + "/"
	return base + "docker-" + version + ".tgz",
		base + "docker-rootless-extras-" + version + ".tgz",
		true
}

// DaemonPath returns the path of the installed engine daemon binary.
func (c *Config) DaemonPath() string { return filepath.Join(c.BinDir, Daemon) }

// DockerHost returns the engine API address to use as DOCKER_HOST.
func (c *Config) DockerHost() string {
	return "unix://" + c.APIPath()
}

// APIPath returns the path of the rootless engine's API socket.
func (c *Config) APIPath() string { return filepath.Join(c.RuntimeDir, "docker.sock") }

// userName returns the name of the user with the specified ID, falling back to
// the USER environment variable and finally the numeric ID.
func userName(uid int, getenv func(string) string) string {
	if u, err := user.LookupId(strconv.Itoa(uid)); err == nil {
		return u.Username
	}
	if name := getenv("USER"); name != "" {
		return name
	}
	return strconv.Itoa(uid)
}
