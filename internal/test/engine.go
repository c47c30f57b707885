// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package test

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	. "github.com/onsi/gomega"
)

// FakeEngine serves a minimal Docker engine API on a unix domain socket at the
// specified path, answering only pings and information queries. It returns a
// function for stopping the fake engine.
func FakeEngine(api string, version string, rootless bool) (stop func()) {
	l, err := net.Listen("unix", api)
	Expect(err).NotTo(HaveOccurred())
	id := uuid.NewString()
	secopts := []string{"name=seccomp,profile=builtin"}
	if rootless {
		secopts = append(secopts, "name=rootless")
	}
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Api-Version", "1.47")
			w.Header().Set("Content-Type", "application/json")
			switch {
			case strings.HasSuffix(r.URL.Path, "/_ping"):
				_, _ = w.Write([]byte("OK"))
			case strings.HasSuffix(r.URL.Path, "/info"):
				_ = json.NewEncoder(w).Encode(map[string]any{
					"ID":              id,
					"ServerVersion":   version,
					"SecurityOptions": secopts,
				})
			default:
				http.NotFound(w, r)
			}
		}),
	}
	go func() { _ = srv.Serve(l) }()
	return func() { _ = srv.Close() }
}
