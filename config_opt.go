// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package turtlenest

import (
	"time"

	"github.com/siemens/turtlenest/fetch"
	"github.com/siemens/turtlenest/hostexec"
	"github.com/siemens/turtlenest/probe"
	"github.com/siemens/turtlenest/supervisor"
)

// NewOption represents options to New when computing the installer
// configuration.
type NewOption func(*Config)

// WithBinDir sets the installation directory, instead of “$HOME/bin”. An empty
// directory keeps the default.
func WithBinDir(dir string) NewOption {
	return func(c *Config) {
		c.BinDir = dir
	}
}

// WithArchives sets the download locations of the engine and rootless extras
// archives, as well as their optional SHA-256 digests. Empty locations keep the
// defaults.
func WithArchives(engineURL, engineDigest, extrasURL, extrasDigest string) NewOption {
	return func(c *Config) {
		if engineURL != "" {
			c.EngineURL = engineURL
		}
		if extrasURL != "" {
			c.ExtrasURL = extrasURL
		}
		c.EngineDigest = engineDigest
		c.ExtrasDigest = extrasDigest
	}
}

// WithDescriptorPolicy sets the policy for dealing with an existing service
// descriptor.
func WithDescriptorPolicy(policy DescriptorPolicy) NewOption {
	return func(c *Config) {
		c.Policy = policy
	}
}

// WithStorageDriver forces the specified storage driver instead of probing for
// overlay support. An empty name keeps probing.
func WithStorageDriver(driver string) NewOption {
	return func(c *Config) {
		c.StorageDriver = driver
	}
}

// WithSkipIptables disables the engine's firewall integration even when
// iptables is available.
func WithSkipIptables(skip bool) NewOption {
	return func(c *Config) {
		c.SkipIptables = skip
	}
}

// WithForce installs even when a system-wide engine is accessible.
func WithForce(force bool) NewOption {
	return func(c *Config) {
		c.Force = force
	}
}

// WithEnable enables the registered service to start automatically.
func WithEnable(enable bool) NewOption {
	return func(c *Config) {
		c.Enable = enable
	}
}

// WithVerifyTimeout sets the maximum wait for a started engine to answer API
// calls. Zero or less skips verification.
func WithVerifyTimeout(d time.Duration) NewOption {
	return func(c *Config) {
		c.VerifyTimeout = d
	}
}

// WithRunner sets the runner for host commands.
func WithRunner(r hostexec.Runner) NewOption {
	return func(c *Config) {
		c.Runner = r
	}
}

// WithFetcher sets the archive downloader.
func WithFetcher(f *fetch.Fetcher) NewOption {
	return func(c *Config) {
		c.Fetcher = f
	}
}

// WithEnv sets the function for looking up environment variables, instead of
// os.Getenv.
func WithEnv(getenv func(string) string) NewOption {
	return func(c *Config) {
		c.getenv = getenv
	}
}

// WithIdentity sets the host platform and the user identity, instead of
// querying them from the running process.
func WithIdentity(goos string, euid, uid int, name string) NewOption {
	return func(c *Config) {
		c.OS = goos
		c.EUID = euid
		c.UID = uid
		c.User = name
	}
}

// WithRoot sets a prefix for looking up /etc and /proc files, as well as the
// system-wide engine API endpoint.
func WithRoot(root string) NewOption {
	return func(c *Config) {
		c.Root = root
	}
}

// WithRootfulAPI sets the API endpoint path of a system-wide engine to check
// for.
func WithRootfulAPI(api string) NewOption {
	return func(c *Config) {
		c.RootfulAPI = api
	}
}

// WithScratchDir sets the parent directory for scratch directories.
func WithScratchDir(dir string) NewOption {
	return func(c *Config) {
		c.ScratchDir = dir
	}
}

// WithFallbackRuntimeBase sets the parent directory of the private fallback
// runtime directory, instead of DefaultFallbackRuntimeBase.
func WithFallbackRuntimeBase(dir string) NewOption {
	return func(c *Config) {
		c.fallbackBase = dir
	}
}

// WithSupervisor sets the service supervisor instead of detecting it; nil
// means unsupervised.
func WithSupervisor(s supervisor.Supervisor) NewOption {
	return func(c *Config) {
		c.Supervisor = s
		c.supervisorProbed = true
	}
}

// WithCapabilities sets the host capabilities instead of probing them.
func WithCapabilities(caps probe.Capabilities) NewOption {
	return func(c *Config) {
		c.Caps = caps
		c.capsProbed = true
	}
}
