// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package turtlenest

import (
	"context"
	"time"

	"github.com/siemens/turtlenest/engine"
	"github.com/siemens/turtlenest/probe/iptables"
	"github.com/siemens/turtlenest/storage"
	"github.com/siemens/turtlenest/unit"
	"github.com/thediveo/lxkns/log"
)

// Registration is the outcome of registering the rootless engine with a
// service supervisor, or of preparing its manual start.
type Registration struct {
	Driver     string           // storage driver.
	Flags      []string         // engine daemon flags.
	Supervised bool             // a service supervisor manages the engine.
	UnitPath   string           // path of the service descriptor, if supervised.
	Written    bool             // the service descriptor has been newly written.
	Customized bool             // an existing service descriptor differs from the generated one.
	Started    bool             // the service has been started.
	Status     string           // supervisor's service status report.
	Endpoint   *engine.Endpoint // verified rootless engine API endpoint, if any.
}

// StorageDriver returns the configured storage driver, or otherwise probes for
// the best one available.
func StorageDriver(ctx context.Context, c *Config) string {
	if c.StorageDriver != "" {
		return c.StorageDriver
	}
	p := &storage.Prober{
		Runner:     c.Runner,
		BinDir:     c.BinDir,
		ScratchDir: c.ScratchDir,
		Root:       c.Root,
	}
	return p.Choose(ctx)
}

// Flags returns the engine daemon flags for the specified storage driver. The
// same flags are used in the service descriptor as well as for starting the
// engine manually.
func Flags(c *Config, driver string) []string {
	flags := []string{"--experimental", "--storage-driver=" + driver}
	if c.SkipIptables || !c.Caps.Has(iptables.Name) {
		flags = append(flags, "--iptables=false")
	}
	return flags
}

// Descriptor returns the service descriptor for the installed engine using
// the specified daemon flags.
func Descriptor(c *Config, flags []string) unit.Descriptor {
	return unit.Docker(c.BinDir, flags)
}

// Register registers the installed engine with the service supervisor, if
// any. Without a supervisor, it only determines the flags for starting the
// engine manually.
//
// With a supervisor, a missing service descriptor gets written and the
// supervisor reloaded. An existing descriptor is never overwritten; depending
// on the descriptor policy, the service is then either still started
// ([KeepDescriptor]) or left completely alone ([SkipService]). A service not
// yet running gets started and, when a verification timeout is set, the
// rootless engine is checked to answer API calls; failing verification is only
// logged.
func Register(ctx context.Context, c *Config) (*Registration, error) {
	driver := StorageDriver(ctx, c)
	reg := &Registration{
		Driver: driver,
		Flags:  Flags(c, driver),
	}
	log.Infof("engine flags: %v", reg.Flags)
	sup := c.Supervisor
	if sup == nil {
		return reg, nil
	}
	reg.Supervised = true
	reg.UnitPath = sup.UnitPath(c.Home, unit.ServiceName)
	written, err := unit.WriteIfAbsent(reg.UnitPath, Descriptor(c, reg.Flags))
	if err != nil {
		return nil, newError(Environment, "cannot register the docker service", err)
	}
	reg.Written = written
	if written {
		log.Infof("created service descriptor %s", reg.UnitPath)
		if err := sup.Reload(ctx); err != nil {
			return nil, newError(Transient, "cannot reload the "+sup.Name()+" service descriptors", err)
		}
	} else {
		fingerprint, err := unit.Fingerprint(reg.UnitPath)
		if err != nil {
			return nil, newError(Environment, "cannot read the existing docker service descriptor", err)
		}
		reg.Customized = fingerprint != unit.Sum(Descriptor(c, reg.Flags))
		if reg.Customized {
			log.Infof("keeping customized service descriptor %s (%016x)", reg.UnitPath, fingerprint)
		} else {
			log.Infof("keeping existing service descriptor %s", reg.UnitPath)
		}
		if c.Policy == SkipService {
			log.Infof("leaving existing docker service alone")
			return reg, nil
		}
	}
	if c.Enable {
		if err := sup.Enable(ctx, unit.ServiceName); err != nil {
			return nil, newError(Transient, "cannot enable the docker service", err)
		}
	}
	if !sup.IsActive(ctx, unit.ServiceName) {
		log.Infof("starting the docker service")
		if err := sup.Start(ctx, unit.ServiceName); err != nil {
			return nil, newError(Transient, "cannot start the docker service", err)
		}
		reg.Started = true
	}
	reg.Status, _ = sup.Status(ctx, unit.ServiceName)
	if c.VerifyTimeout > 0 {
		reg.Endpoint = verify(ctx, c)
	}
	return reg, nil
}

// verify waits for the rootless engine to answer API calls, returning its
// endpoint information or nil if it didn't answer in time.
func verify(ctx context.Context, c *Config) *engine.Endpoint {
	ctx, cancel := context.WithTimeout(ctx, c.VerifyTimeout)
	defer cancel()
	ep, err := engine.WaitReachable(ctx, c.APIPath(), verifyInterval)
	if err != nil {
		log.Errorf("rootless Docker not answering at %s, reason: %s", c.DockerHost(), err.Error())
		return nil
	}
	if !ep.Rootless {
		log.Errorf("Docker %s at %s does not run rootless", ep.Version, c.DockerHost())
	}
	log.Infof("rootless Docker %s answering at %s", ep.Version, c.DockerHost())
	return ep
}

// verifyInterval is the pause between API probes when verifying a started
// engine.
const verifyInterval = 500 * time.Millisecond
