// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

/*
Package unit models service descriptors as ordered key/value sections and
renders them in the ini-style format of systemd unit files. Descriptors are
written at most once: an already existing descriptor file is never
overwritten, so that a user's manual edits survive reinstallations.
*/
package unit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Field is a single “Key=Value” line of a descriptor section.
type Field struct {
	Key   string
	Value string
}

// Section is a named “[Section]” of a descriptor, with its fields in order.
type Section struct {
	Name   string
	Fields []Field
}

// Descriptor is a service descriptor consisting of sections in order.
type Descriptor struct {
	Sections []Section
}

// Render returns the textual representation of the descriptor, with an empty
// line separating sections.
func Render(d Descriptor) []byte {
	var b strings.Builder
	for idx, section := range d.Sections {
		if idx > 0 {
			b.WriteString("\n")
		}
		b.WriteString("[" + section.Name + "]\n")
		for _, field := range section.Fields {
			b.WriteString(field.Key + "=" + field.Value + "\n")
		}
	}
	return []byte(b.String())
}

// Get returns the value of the first field with the specified key in the
// named section, and whether it was found.
func (d Descriptor) Get(section, key string) (string, bool) {
	for _, s := range d.Sections {
		if s.Name != section {
			continue
		}
		for _, f := range s.Fields {
			if f.Key == key {
				return f.Value, true
			}
		}
	}
	return "", false
}

// WriteIfAbsent writes the rendered descriptor to the specified path, creating
// missing parent directories, but only if there is no file at this path yet.
// It returns true if the descriptor has been written, and false if a file was
// already present (which then is left untouched).
func WriteIfAbsent(path string, d Descriptor) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("cannot create directory for descriptor %s, reason: %w",
			path, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cannot create descriptor %s, reason: %w", path, err)
	}
	_, err = f.Write(Render(d))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return false, fmt.Errorf("cannot write descriptor %s, reason: %w", path, err)
	}
	return true, nil
}

// Fingerprint returns a hash over the contents of the file at the specified
// path, for detecting changes to existing descriptors.
func Fingerprint(path string) (uint64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(b), nil
}

// Sum returns the fingerprint of the rendered descriptor, as Fingerprint would
// return it for a file written from it.
func Sum(d Descriptor) uint64 { return xxhash.Sum64(Render(d)) }
