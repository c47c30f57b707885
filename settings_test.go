// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package turtlenest

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("settings", func() {

	It("places the settings file into the user's configuration", func() {
		Expect(DefaultSettingsPath("/home/gopher")).To(
			Equal("/home/gopher/.config/turtlenest/config.yaml"))
	})

	It("treats a missing settings file as empty settings", func() {
		Expect(Successful(LoadSettings(""))).To(Equal(&Settings{}))
		Expect(Successful(LoadSettings(filepath.Join(GinkgoT().TempDir(), "nada.yaml")))).To(
			Equal(&Settings{}))
	})

	It("loads settings", func() {
		path := filepath.Join(GinkgoT().TempDir(), "config.yaml")
		Expect(os.WriteFile(path, []byte(`binDir: /opt/docker/bin
engineURL: http://mirror/docker.tgz
engineSHA256: abc
descriptorPolicy: skip
skipIptables: true
`), 0o644)).To(Succeed())
		s := Successful(LoadSettings(path))
		Expect(s.BinDir).To(Equal("/opt/docker/bin"))
		Expect(s.EngineURL).To(Equal("http://mirror/docker.tgz"))
		Expect(s.EngineSHA256).To(Equal("abc"))
		Expect(s.DescriptorPolicy).To(Equal("skip"))
		Expect(s.SkipIptables).To(BeTrue())
		Expect(s.Enable).To(BeFalse())
	})

	It("rejects invalid settings", func() {
		dir := GinkgoT().TempDir()
		garbage := filepath.Join(dir, "garbage.yaml")
		Expect(os.WriteFile(garbage, []byte("binDir: [\n"), 0o644)).To(Succeed())
		Expect(LoadSettings(garbage)).Error().To(MatchError(ContainSubstring("cannot parse")))

		policy := filepath.Join(dir, "policy.yaml")
		Expect(os.WriteFile(policy, []byte("descriptorPolicy: clobber\n"), 0o644)).To(Succeed())
		Expect(LoadSettings(policy)).Error().To(MatchError(ContainSubstring("invalid descriptor policy")))
	})

})
