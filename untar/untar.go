// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

/*
Package untar extracts gzip-compressed tar archives, stripping leading path
components from the archive entries in the way “tar --strip-components”
does.
*/
package untar

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/klauspost/compress/gzip"
	"github.com/thediveo/lxkns/log"
)

// Extract unpacks the gzip-compressed tar archive file into the directory
// dest, stripping the specified number of leading path components from all
// entries. Entries that end up empty after stripping (such as the top-level
// directory itself) are skipped. Existing files in dest get replaced.
//
// Extract refuses entries that would end up outside dest, also when going
// through symbolic links created by earlier entries. Extraction is aborted
// when the context gets cancelled, possibly leaving dest partially populated.
func Extract(ctx context.Context, archive string, dest string, strip int) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("cannot open archive %s, reason: %w", archive, err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("cannot decompress archive %s, reason: %w", archive, err)
	}
	defer gz.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("cannot create directory %s, reason: %w", dest, err)
	}
	tr := tar.NewReader(gz)
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("corrupt archive %s, reason: %w", archive, err)
		}
		name, ok := Strip(hdr.Name, strip)
		if !ok {
			continue
		}
		target, err := resolve(dest, name)
		if err != nil {
			return fmt.Errorf("cannot extract %s from archive %s, reason: %w",
				hdr.Name, archive, err)
		}
		if err := extractEntry(tr, hdr, dest, target); err != nil {
			return fmt.Errorf("cannot extract %s from archive %s, reason: %w",
				hdr.Name, archive, err)
		}
		count++
	}
	log.Infof("extracted %d entries from %s into %s", count, archive, dest)
	return nil
}

// Strip removes the specified number of leading path components from the
// archive entry name, returning the cleaned remainder. It returns false if
// nothing remains or the remainder would escape the extraction directory.
func Strip(name string, strip int) (string, bool) {
	name = path.Clean("/" + strings.TrimLeft(name, "/"))[1:]
	if name == "" {
		return "", false
	}
	parts := strings.Split(name, "/")
	if len(parts) <= strip {
		return "", false
	}
	rest := path.Join(parts[strip:]...)
	if rest == "" || rest == "." {
		return "", false
	}
	return rest, true
}

// resolve returns the path for the stripped entry name inside dest, with any
// symbolic links in its parent directories resolved as if dest were the root
// directory. Links created by earlier entries thus never lead outside dest.
// The final path component is left unresolved, so that existing symbolic links
// get replaced instead of written through.
func resolve(dest string, name string) (string, error) {
	parent, err := securejoin.SecureJoin(dest, path.Dir(name))
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, path.Base(name)), nil
}

// checkLink accepts only relative symbolic link targets that stay inside dest
// when taken from the already resolved directory dir. Parent directory
// references are allowed only as a leading prefix.
func checkLink(dest string, dir string, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("absolute symbolic link target %s", linkname)
	}
	descended := false
	for _, elem := range strings.Split(linkname, "/") {
		switch elem {
		case "", ".":
			continue
		case "..":
			if descended {
				return fmt.Errorf("symbolic link target %s climbs up after descending", linkname)
			}
		default:
			descended = true
		}
	}
	rel, err := filepath.Rel(dest, filepath.Join(dir, linkname))
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return fmt.Errorf("symbolic link target %s outside %s", linkname, dest)
	}
	return nil
}

func extractEntry(tr *tar.Reader, hdr *tar.Header, dest string, target string) error {
	mode := fs.FileMode(hdr.Mode).Perm()
	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, 0o755); err != nil {
			return err
		}
		return os.Chmod(target, mode|0o700)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		// Replace instead of truncating in place, so that busy executables
		// of a running engine don't get in the way.
		_ = os.Remove(target)
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
		if err != nil {
			return err
		}
		_, err = io.Copy(out, tr)
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		return err
	case tar.TypeSymlink:
		if err := checkLink(dest, filepath.Dir(target), hdr.Linkname); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		_ = os.Remove(target)
		return os.Symlink(hdr.Linkname, target)
	default:
		log.Debugf("skipping archive entry %s of type %c", hdr.Name, hdr.Typeflag)
		return nil
	}
}
