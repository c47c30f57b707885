// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

/*
Package fetch downloads archives over HTTP(S) into local files, optionally
verifying their SHA-256 digests. There are no retries: a failed download
fails for good.
*/
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/thediveo/lxkns/log"
)

// Fetcher downloads archives.
type Fetcher struct {
	Client *http.Client // optional client; nil uses http.DefaultClient.
}

// Fetch downloads the resource at url into the file dest. If digest isn't
// empty, the SHA-256 digest of the downloaded contents (hex-encoded) must match
// it. On failure, no file at dest is left behind.
func (f *Fetcher) Fetch(ctx context.Context, url string, dest string, digest string) (err error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("invalid download location %s, reason: %w", url, err)
	}
	log.Infof("downloading %s", url)
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("cannot download %s, reason: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot download %s, reason: HTTP status %s", url, resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("cannot create %s, reason: %w", dest, err)
	}
	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("cannot write %s, reason: %w", dest, closeErr)
		}
		if err != nil {
			_ = os.Remove(dest)
		}
	}()
	hash := sha256.New()
	n, err := io.Copy(io.MultiWriter(out, hash), resp.Body)
	if err != nil {
		return fmt.Errorf("cannot download %s, reason: %w", url, err)
	}
	log.Debugf("downloaded %d bytes from %s", n, url)
	if digest == "" {
		return nil
	}
	if actual := hex.EncodeToString(hash.Sum(nil)); !strings.EqualFold(actual, digest) {
		return fmt.Errorf("checksum mismatch for %s: expected sha256 %s, got %s",
			url, strings.ToLower(digest), actual)
	}
	return nil
}
