// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/docker/docker/client"
	"github.com/thediveo/lxkns/log"
	"github.com/thediveo/lxkns/model"
	"github.com/thediveo/procfsroot"
	mobyengine "github.com/thediveo/whalewatcher/engineclient/moby"
	"github.com/thediveo/whalewatcher/watcher/moby"
	"golang.org/x/exp/slices"
	"golang.org/x/sys/unix"
)

// RootfulAPI is the well-known API endpoint of a system-wide Docker engine.
const RootfulAPI = "/var/run/docker.sock"

// Timeouts for dialing API endpoints and for querying engine information.
const (
	DialTimeout = 5 * time.Second
	InfoTimeout = 10 * time.Second
)

// ErrUnreachable indicates that there's no usable engine API endpoint.
var ErrUnreachable = errors.New("engine API endpoint unreachable")

// Endpoint describes a reachable engine API endpoint.
type Endpoint struct {
	API      string        // API endpoint path with symbolic links resolved.
	PID      model.PIDType // PID of the serving process, or zero if unknown.
	ID       string        // engine ID.
	Version  string        // engine version.
	Rootless bool          // engine runs rootless.
}

// Resolve returns the specified API endpoint path with all symbolic links
// resolved, such as the usual “/var/run” to “/run” link.
func Resolve(api string) (string, error) {
	wormhole := "/proc/self/root"
	resolved, err := procfsroot.EvalSymlinks(api, wormhole, procfsroot.EvalFullPath)
	if err != nil {
		return "", fmt.Errorf("invalid API endpoint path %s, reason: %w", api, err)
	}
	return resolved, nil
}

// Probe checks whether an engine is reachable for us at the specified API
// endpoint path. An engine is only considered to be reachable if we can write
// to its API socket and it then answers an information query. Otherwise, an
// error wrapping ErrUnreachable is returned.
func Probe(ctx context.Context, api string) (*Endpoint, error) {
	resolved, err := Resolve(api)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, err.Error())
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, err.Error())
	}
	if info.Mode().Type() != os.ModeSocket {
		return nil, fmt.Errorf("%w: %s is not a socket", ErrUnreachable, resolved)
	}
	if err := unix.Access(resolved, unix.W_OK); err != nil {
		return nil, fmt.Errorf("%w: %s not writable, reason: %s", ErrUnreachable, resolved, err.Error())
	}
	pid, closer := pidOfUDS(ctx, resolved)
	closer()

	log.Debugf("dialing Docker endpoint 'unix://%s'", resolved)
	w, err := moby.New("unix://"+resolved, nil, mobyengine.WithPID(int(pid)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, err.Error())
	}
	defer w.Close()
	ctx, cancel := context.WithTimeout(ctx, InfoTimeout)
	defer cancel()
	sysinfo, err := w.Client().(*client.Client).Info(ctx)
	if ctxerr := ctx.Err(); ctxerr != nil {
		log.Debugf("Docker API Info call context hit deadline, reason: %s", ctxerr.Error())
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, ctxerr.Error())
	}
	if err != nil {
		log.Debugf("Docker API endpoint 'unix://%s' failed, reason: %s", resolved, err.Error())
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, err.Error())
	}
	return &Endpoint{
		API:      resolved,
		PID:      pid,
		ID:       sysinfo.ID,
		Version:  sysinfo.ServerVersion,
		Rootless: slices.Contains(sysinfo.SecurityOptions, "name=rootless"),
	}, nil
}

// WaitReachable probes the API endpoint until the engine answers or the
// context is done, returning the last probe error in the latter case.
func WaitReachable(ctx context.Context, api string, interval time.Duration) (*Endpoint, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		ep, err := Probe(ctx, api)
		if err == nil {
			return ep, nil
		}
		select {
		case <-ctx.Done():
			return nil, err
		case <-ticker.C:
		}
	}
}

// pidOfUDS returns the PID of the process serving the specified unix domain
// socket, using the peer credentials of a connection to it. The returned
// closer must always be called.
func pidOfUDS(ctx context.Context, api string) (pid model.PIDType, closer func()) {
	d := net.Dialer{}
	ctx, cancel := context.WithTimeout(ctx, DialTimeout)
	conn, err := d.DialContext(ctx, "unix", api)
	cancel()
	if err != nil {
		return 0, func() {}
	}
	closer = func() { conn.Close() }
	sc, err := conn.(*net.UnixConn).SyscallConn()
	if err != nil {
		return
	}
	var ucred *unix.Ucred
	if ctrlerr := sc.Control(func(fd uintptr) {
		ucred, err = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); ctrlerr != nil || err != nil {
		return
	}
	pid = model.PIDType(ucred.Pid)
	return
}
