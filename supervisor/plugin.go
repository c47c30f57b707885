// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package supervisor

import (
	"context"
	"strings"

	"github.com/siemens/turtlenest/hostexec"
	"github.com/thediveo/go-plugger/v3"
	"github.com/thediveo/lxkns/log"
)

// Detector identifies a particular per-user service supervisor.
type Detector interface {
	// Detect returns a Supervisor if the supervisor is available and
	// reachable for the current user, otherwise nil.
	Detect(ctx context.Context, r hostexec.Runner) Supervisor
}

// Supervisor manages long-running per-user services.
type Supervisor interface {
	// Name returns the name of the supervisor, such as “systemd”.
	Name() string

	// UnitPath returns the path of the service descriptor for the named
	// service, given the user's home directory.
	UnitPath(home string, service string) string

	// Reload makes the supervisor reread its service descriptors.
	Reload(ctx context.Context) error

	// IsActive returns true if the named service is running.
	IsActive(ctx context.Context, service string) bool

	// Start starts the named service.
	Start(ctx context.Context, service string) error

	// Enable makes the named service start automatically on login.
	Enable(ctx context.Context, service string) error

	// Status returns the supervisor's human-readable status report for the
	// named service.
	Status(ctx context.Context, service string) (string, error)

	// ControlHint returns the command line template a user can use to control
	// the named service.
	ControlHint(service string) string
}

// Find returns the first available supervisor of the registered supervisor
// plugins, or nil if no supervisor is available.
func Find(ctx context.Context, r hostexec.Runner) Supervisor {
	log.Debugf("available supervisor plugins: %s",
		strings.Join(plugger.Group[Detector]().Plugins(), ", "))
	for _, detector := range plugger.Group[Detector]().PluginsSymbols() {
		if s := detector.S.Detect(ctx, r); s != nil {
			log.Infof("detected per-user service supervisor %s", detector.Plugin)
			return s
		}
	}
	log.Infof("no per-user service supervisor detected")
	return nil
}
