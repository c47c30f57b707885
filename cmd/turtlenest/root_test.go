// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/siemens/turtlenest"
	"github.com/siemens/turtlenest/internal/test"
	"github.com/siemens/turtlenest/probe"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("command line", func() {

	var settingsPath string
	var env map[string]string

	BeforeEach(func() {
		settingsPath = filepath.Join(GinkgoT().TempDir(), "config.yaml")
		Expect(os.WriteFile(settingsPath, []byte(`binDir: /settings/bin
engineURL: http://settings/engine.tgz
extrasURL: http://settings/extras.tgz
descriptorPolicy: skip
enable: true
`), 0o644)).To(Succeed())
		env = map[string]string{"HOME": "/home/gopher"}
	})

	// config parses the specified command line arguments and returns the
	// resulting installer configuration without probing the host.
	config := func(args ...string) (*turtlenest.Config, error) {
		opts := &rootOptions{getenv: func(name string) string { return env[name] }}
		var out, errout strings.Builder
		cmd := rootCommand(opts, &out, &errout)
		Expect(cmd.ParseFlags(append([]string{"--config", settingsPath}, args...))).To(Succeed())
		newopts, err := opts.newOptions(cmd)
		if err != nil {
			return nil, err
		}
		return turtlenest.New(context.Background(), append(newopts,
			turtlenest.WithIdentity("linux", 1000, 1000, "gopher"),
			turtlenest.WithRunner(test.NewRunner()),
			turtlenest.WithSupervisor(nil),
			turtlenest.WithCapabilities(probe.Capabilities{}),
			turtlenest.WithFallbackRuntimeBase(GinkgoT().TempDir()))...), nil
	}

	It("takes settings from the settings file", func() {
		c := Successful(config())
		Expect(c.BinDir).To(Equal("/settings/bin"))
		Expect(c.EngineURL).To(Equal("http://settings/engine.tgz"))
		Expect(c.ExtrasURL).To(Equal("http://settings/extras.tgz"))
		Expect(c.Policy).To(Equal(turtlenest.SkipService))
		Expect(c.Enable).To(BeTrue())
		Expect(c.Force).To(BeFalse())
	})

	It("prefers environment variables over settings", func() {
		env["DOCKER_BIN"] = "/env/bin"
		env["STATIC_RELEASE_URL"] = "http://env/engine.tgz"
		env["STATIC_RELEASE_ROOTLESS_URL"] = "http://env/extras.tgz"
		env["FORCE_ROOTLESS_INSTALL"] = "1"
		env["SKIP_IPTABLES"] = "1"
		c := Successful(config())
		Expect(c.BinDir).To(Equal("/env/bin"))
		Expect(c.EngineURL).To(Equal("http://env/engine.tgz"))
		Expect(c.ExtrasURL).To(Equal("http://env/extras.tgz"))
		Expect(c.Force).To(BeTrue())
		Expect(c.SkipIptables).To(BeTrue())
	})

	It("prefers flags over environment variables", func() {
		env["DOCKER_BIN"] = "/env/bin"
		env["FORCE_ROOTLESS_INSTALL"] = "1"
		c := Successful(config("--bin-dir", "/flag/bin", "--force=false",
			"--descriptor-policy", "keep", "--storage-driver", "vfs"))
		Expect(c.BinDir).To(Equal("/flag/bin"))
		Expect(c.Force).To(BeFalse())
		Expect(c.Policy).To(Equal(turtlenest.KeepDescriptor))
		Expect(c.StorageDriver).To(Equal("vfs"))
	})

	It("rejects incomplete archive locations", func() {
		Expect(os.Remove(settingsPath)).To(Succeed())
		Expect(config("--engine-url", "http://flag/engine.tgz")).Error().To(
			MatchError(ContainSubstring("must be specified together")))
	})

	It("rejects invalid descriptor policies", func() {
		Expect(config("--descriptor-policy", "clobber")).Error().To(
			MatchError(ContainSubstring("invalid descriptor policy")))
	})

	It("fails with exit code 1", func() {
		Expect(execute([]string{"--config", settingsPath, "--descriptor-policy", "clobber"})).To(Equal(1))
		Expect(execute([]string{"--no-such-flag"})).To(Equal(1))
	})

	DescribeTable("reporting errors",
		func(err error, expected string) {
			var out strings.Builder
			reportError(&out, err)
			Expect(out.String()).To(Equal(expected))
		},
		Entry("plain", errors.New("D'OH!"), "error: D'OH!\n"),
		Entry("with hint", &turtlenest.Error{
			Kind:        turtlenest.Environment,
			Msg:         "no runtime directory",
			Remediation: []string{"# log in again"},
		}, "error: no runtime directory\n# log in again\n"),
		Entry("missing capabilities", &turtlenest.Error{
			Kind:        turtlenest.Capability,
			Msg:         "missing system requirements",
			Remediation: []string{"apt-get install -y uidmap", "sysctl --system"},
		}, "error: missing system requirements\n\ncat <<EOF | sudo sh -x\napt-get install -y uidmap\nsysctl --system\nEOF\n"),
	)

})
