// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package test

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/siemens/turtlenest/supervisor"
)

// Supervisor is a fake service supervisor recording the operations carried
// out on it.
type Supervisor struct {
	Active   bool  // service is running.
	StartErr error // optional error to return from Start.

	mu  sync.Mutex
	ops []string
}

var _ supervisor.Supervisor = (*Supervisor)(nil)

// Ops returns the operations carried out so far, such as “reload” and
// “start docker”.
func (s *Supervisor) Ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

func (s *Supervisor) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op)
}

func (s *Supervisor) Name() string { return "fake" }

func (s *Supervisor) UnitPath(home string, service string) string {
	return filepath.Join(home, ".config", "fake", service+".service")
}

func (s *Supervisor) Reload(ctx context.Context) error {
	s.record("reload")
	return nil
}

func (s *Supervisor) IsActive(ctx context.Context, service string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Active
}

func (s *Supervisor) Start(ctx context.Context, service string) error {
	s.record("start " + service)
	if s.StartErr != nil {
		return s.StartErr
	}
	s.mu.Lock()
	s.Active = true
	s.mu.Unlock()
	return nil
}

func (s *Supervisor) Enable(ctx context.Context, service string) error {
	s.record("enable " + service)
	return nil
}

func (s *Supervisor) Status(ctx context.Context, service string) (string, error) {
	s.record("status " + service)
	return "● " + service + ".service - fake", nil
}

func (s *Supervisor) ControlHint(service string) string {
	return "fakectl (start|stop) " + service
}
