/*
Package turtlenest installs a rootless Docker engine into the home directory
of an unprivileged user: no administrator rights required, except for the
occasional host capability that only an administrator can supply.

# Quick Start

	cfg := turtlenest.New(ctx)
	err := turtlenest.Run(ctx, cfg, os.Stdout)
	os.Exit(turtlenest.ExitCode(err))

# Stages

An installation runs three stages strictly one after another, all reading the
same immutable [Config] that [New] computes once from the environment:

  - [Check] inspects the host and user: platform, non-root user, home and
    installation directories, a conflicting system-wide engine, the runtime
    directory, an existing installation, and finally the host capabilities
    needed for rootless operation. Missing capabilities are reported together
    with the privileged commands to supply them.
  - [Install] downloads the static engine archive and the rootless extras
    archive into a scratch directory and only then extracts both into the
    installation directory.
  - [Register] writes a service descriptor for the systemd user manager (but
    never overwrites an existing one), and starts the service. Without a
    service supervisor the user gets told how to start the engine manually.

Re-running an installation after success doesn't download anything, but
instead reports the current configuration.

# Plugins

Host capability probes and service supervisors are plugins (see the “probe”
and “supervisor” sub-packages), registered using [go-plugger].

[go-plugger]: https://github.com/thediveo/go-plugger
*/
package turtlenest
