// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package test

import (
	"archive/tar"
	"bytes"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/exp/slices"

	. "github.com/onsi/gomega"
)

// Tarball returns a gzip-compressed tar archive with the specified files, all
// wrapped in the single top-level directory topdir. Files with names ending in
// “*” get executable permissions (without the asterisk in their names).
func Tarball(topdir string, files map[string]string) []byte {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	Expect(tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeDir,
		Name:     topdir + "/",
		Mode:     0o755,
	})).To(Succeed())
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		mode := int64(0o644)
		if n, ok := strings.CutSuffix(name, "*"); ok {
			name, mode = n, 0o755
		}
		content := files[name]
		if content == "" {
			content = files[name+"*"]
		}
		Expect(tw.WriteHeader(&tar.Header{
			Typeflag: tar.TypeReg,
			Name:     path.Join(topdir, name),
			Mode:     mode,
			Size:     int64(len(content)),
		})).To(Succeed())
		_, err := tw.Write([]byte(content))
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(tw.Close()).To(Succeed())
	Expect(gz.Close()).To(Succeed())
	return buf.Bytes()
}
