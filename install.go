// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package turtlenest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/siemens/turtlenest/untar"
	"github.com/thediveo/lxkns/log"
)

// archive is a single archive to download and extract.
type archive struct {
	url    string
	digest string
	file   string // file name inside the scratch directory.
}

// Install downloads the engine and rootless extras archives into a fresh
// scratch directory and then extracts both into the installation directory,
// stripping the archives' top-level directory. Extraction starts only after
// both downloads succeeded. The scratch directory is removed on all paths,
// including context cancellation. Failures are [Transient] errors; a failed
// extraction might leave the installation directory partially populated.
func Install(ctx context.Context, c *Config) error {
	scratch, err := os.MkdirTemp(c.ScratchDir, "turtlenest-*")
	if err != nil {
		return newError(Transient, "cannot create scratch directory", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.Errorf("cannot remove scratch directory %s, reason: %s", scratch, err.Error())
		}
	}()
	log.Debugf("scratch directory %s", scratch)

	archives := []archive{
		{url: c.EngineURL, digest: c.EngineDigest, file: "engine.tgz"},
		{url: c.ExtrasURL, digest: c.ExtrasDigest, file: "extras.tgz"},
	}
	for _, a := range archives {
		if err := c.Fetcher.Fetch(ctx, a.url, filepath.Join(scratch, a.file), a.digest); err != nil {
			return newError(Transient, fmt.Sprintf("cannot download %s", a.url), err)
		}
	}
	if err := os.MkdirAll(c.BinDir, 0o755); err != nil {
		return newError(Transient,
			fmt.Sprintf("cannot create installation directory %s", c.BinDir), err)
	}
	// The engine archive carries the daemon binary that marks a completed
	// installation, so it goes last.
	for _, a := range []archive{archives[1], archives[0]} {
		if err := untar.Extract(ctx, filepath.Join(scratch, a.file), c.BinDir, 1); err != nil {
			return newError(Transient, fmt.Sprintf("cannot install %s", a.url), err)
		}
	}
	log.Infof("installed rootless Docker into %s", c.BinDir)
	return nil
}
