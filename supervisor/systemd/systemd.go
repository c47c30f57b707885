// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package systemd

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/siemens/turtlenest/hostexec"
	"github.com/siemens/turtlenest/supervisor"
	"github.com/thediveo/go-plugger/v3"
	"github.com/thediveo/lxkns/log"
)

// Register this systemd user manager supervisor plugin. This statically
// ensures that the Detector interface is fully implemented.
func init() {
	plugger.Group[supervisor.Detector]().Register(
		&Detector{}, plugger.WithPlugin("systemd"))
}

// Detector detects a systemd user manager reachable via “systemctl --user”.
type Detector struct{}

// Detect returns a systemd Supervisor if systemctl is installed and the user
// manager answers.
func (d *Detector) Detect(ctx context.Context, r hostexec.Runner) supervisor.Supervisor {
	if !hostexec.Has(r, "systemctl") {
		log.Debugf("systemctl not found")
		return nil
	}
	if _, err := r.Output(ctx, "systemctl", "--user", "show-environment"); err != nil {
		log.Debugf("systemd user manager not reachable, reason: %s", err.Error())
		return nil
	}
	return &Systemd{runner: r}
}

// Systemd controls services of the systemd user manager.
type Systemd struct {
	runner hostexec.Runner
}

var _ supervisor.Supervisor = (*Systemd)(nil)

// Name returns “systemd”.
func (s *Systemd) Name() string { return "systemd" }

// UnitPath returns the path of the user unit file for the named service.
func (s *Systemd) UnitPath(home string, service string) string {
	return filepath.Join(home, ".config", "systemd", "user", service+".service")
}

func (s *Systemd) Reload(ctx context.Context) error {
	_, err := s.systemctl(ctx, "daemon-reload")
	return err
}

func (s *Systemd) IsActive(ctx context.Context, service string) bool {
	_, err := s.systemctl(ctx, "is-active", "--quiet", service)
	return err == nil
}

func (s *Systemd) Start(ctx context.Context, service string) error {
	_, err := s.systemctl(ctx, "start", service)
	return err
}

func (s *Systemd) Enable(ctx context.Context, service string) error {
	_, err := s.systemctl(ctx, "enable", service)
	return err
}

// Status returns the output of “systemctl --user status”. As systemctl exits
// non-zero for services that are not running, the output is returned even in
// case of an error.
func (s *Systemd) Status(ctx context.Context, service string) (string, error) {
	out, err := s.systemctl(ctx, "--no-pager", "status", service)
	return strings.TrimRight(string(out), "\n"), err
}

func (s *Systemd) ControlHint(service string) string {
	return "systemctl --user (start|stop|restart) " + service
}

func (s *Systemd) systemctl(ctx context.Context, args ...string) ([]byte, error) {
	return s.runner.Output(ctx, "systemctl", append([]string{"--user"}, args...)...)
}
