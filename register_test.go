// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package turtlenest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/siemens/turtlenest/internal/test"
	"github.com/siemens/turtlenest/probe"
	"github.com/siemens/turtlenest/unit"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("registering the engine service", func() {

	BeforeEach(test.LogToGinkgo)

	Context("daemon flags", func() {

		It("keeps firewall integration when iptables is present", func() {
			sb := newSandbox()
			Expect(Flags(sb.config(), "overlay2")).To(HaveExactElements(
				"--experimental", "--storage-driver=overlay2"))
		})

		It("disables firewall integration without iptables", func() {
			sb := newSandbox()
			caps := allCaps()
			delete(caps, "iptables")
			Expect(Flags(sb.config(WithCapabilities(caps)), "vfs")).To(HaveExactElements(
				"--experimental", "--storage-driver=vfs", "--iptables=false"))
		})

		It("disables firewall integration on request", func() {
			sb := newSandbox()
			Expect(Flags(sb.config(WithSkipIptables(true)), "vfs")).To(
				ContainElement("--iptables=false"))
		})

	})

	It("falls back to vfs when the overlay mount probe fails", func(ctx context.Context) {
		sb := newSandbox()
		sb.Runner.Binaries["unshare"] = "/usr/bin/unshare"
		sb.Runner.On("/usr/bin/unshare --user --map-root-user --mount mount *", test.Reply{
			Output: "mount: permission denied",
			Err:    errors.New("exit status 32"),
		})
		sup := &test.Supervisor{}
		c := sb.config(WithStorageDriver(""), WithSupervisor(sup))

		reg := Successful(Register(ctx, c))
		Expect(reg.Driver).To(Equal("vfs"))
		Expect(reg.Flags).To(ContainElement("--storage-driver=vfs"))
		Expect(string(Successful(os.ReadFile(reg.UnitPath)))).To(
			ContainSubstring("dockerd-rootless.sh --experimental --storage-driver=vfs"))
		Expect(sb.scratchEntries()).To(BeEmpty())
	})

	It("prefers overlay2 when the overlay mount probe succeeds", func(ctx context.Context) {
		sb := newSandbox()
		sb.Runner.Binaries["unshare"] = "/usr/bin/unshare"
		sb.Runner.On("/usr/bin/unshare --user --map-root-user --mount mount *", test.Reply{})
		Expect(StorageDriver(ctx, sb.config(WithStorageDriver("")))).To(Equal("overlay2"))
	})

	It("only prepares a manual start when unsupervised", func(ctx context.Context) {
		sb := newSandbox()
		reg := Successful(Register(ctx, sb.config()))
		Expect(reg.Supervised).To(BeFalse())
		Expect(reg.UnitPath).To(BeEmpty())
		Expect(filepath.Join(sb.Home, ".config")).NotTo(BeAnExistingFile())
	})

	When("supervised", func() {

		It("writes a new descriptor, reloads, and starts the service", func(ctx context.Context) {
			sb := newSandbox()
			sup := &test.Supervisor{}
			c := sb.config(WithSupervisor(sup))
			reg := Successful(Register(ctx, c))
			Expect(reg.Supervised).To(BeTrue())
			Expect(reg.Written).To(BeTrue())
			Expect(reg.Started).To(BeTrue())
			Expect(reg.Status).To(ContainSubstring("docker.service"))
			Expect(reg.UnitPath).To(Equal(filepath.Join(sb.Home, ".config", "fake", "docker.service")))
			Expect(Successful(os.ReadFile(reg.UnitPath))).To(Equal(
				unit.Render(Descriptor(c, reg.Flags))))
			Expect(sup.Ops()).To(HaveExactElements("reload", "start docker", "status docker"))
		})

		It("enables the service on request", func(ctx context.Context) {
			sb := newSandbox()
			sup := &test.Supervisor{}
			Successful(Register(ctx, sb.config(WithSupervisor(sup), WithEnable(true))))
			Expect(sup.Ops()).To(ContainElement("enable docker"))
		})

		It("doesn't start an already running service", func(ctx context.Context) {
			sb := newSandbox()
			sup := &test.Supervisor{Active: true}
			reg := Successful(Register(ctx, sb.config(WithSupervisor(sup))))
			Expect(reg.Started).To(BeFalse())
			Expect(sup.Ops()).NotTo(ContainElement("start docker"))
		})

		It("never overwrites an existing descriptor", func(ctx context.Context) {
			sb := newSandbox()
			sup := &test.Supervisor{}
			c := sb.config(WithSupervisor(sup))
			path := sup.UnitPath(sb.Home, "docker")
			Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
			original := []byte("[Service]\nExecStart=/my/own/dockerd\n")
			Expect(os.WriteFile(path, original, 0o644)).To(Succeed())

			reg := Successful(Register(ctx, c))
			Expect(reg.Written).To(BeFalse())
			Expect(reg.Customized).To(BeTrue())
			Expect(reg.Started).To(BeTrue())
			Expect(Successful(os.ReadFile(path))).To(Equal(original))
			Expect(sup.Ops()).NotTo(ContainElement("reload"))

			var out strings.Builder
			PrintInstructions(&out, c, reg)
			Expect(out.String()).To(ContainSubstring("# NOTE: kept your changes to " + path))
		})

		It("recognizes an existing descriptor identical to the generated one", func(ctx context.Context) {
			sb := newSandbox()
			sup := &test.Supervisor{}
			c := sb.config(WithSupervisor(sup))
			path := sup.UnitPath(sb.Home, "docker")
			Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
			generated := unit.Render(Descriptor(c, Flags(c, "overlay2")))
			Expect(os.WriteFile(path, generated, 0o644)).To(Succeed())

			reg := Successful(Register(ctx, c))
			Expect(reg.Written).To(BeFalse())
			Expect(reg.Customized).To(BeFalse())
			Expect(Successful(os.ReadFile(path))).To(Equal(generated))

			var out strings.Builder
			PrintInstructions(&out, c, reg)
			Expect(out.String()).NotTo(ContainSubstring("NOTE"))
		})

		It("leaves an existing service alone when told so", func(ctx context.Context) {
			sb := newSandbox()
			sup := &test.Supervisor{}
			c := sb.config(WithSupervisor(sup), WithDescriptorPolicy(SkipService))
			path := sup.UnitPath(sb.Home, "docker")
			Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
			Expect(os.WriteFile(path, []byte("[Service]\n"), 0o644)).To(Succeed())

			reg := Successful(Register(ctx, c))
			Expect(reg.Written).To(BeFalse())
			Expect(reg.Started).To(BeFalse())
			Expect(sup.Ops()).To(BeEmpty())
		})

		It("reports a failing start", func(ctx context.Context) {
			sb := newSandbox()
			sup := &test.Supervisor{StartErr: errors.New("unit failed")}
			_, err := Register(ctx, sb.config(WithSupervisor(sup)))
			Expect(err).To(MatchError(ContainSubstring("cannot start the docker service")))
			Expect(KindOf(err)).To(Equal(Transient))
		})

		It("verifies that the started engine answers", func(ctx context.Context) {
			sb := newSandbox()
			stop := test.FakeEngine(filepath.Join(sb.Runtime, "docker.sock"), "28.5.2", true)
			defer stop()
			c := sb.config(WithSupervisor(&test.Supervisor{}), WithVerifyTimeout(5*time.Second))
			reg := Successful(Register(ctx, c))
			Expect(reg.Endpoint).NotTo(BeNil())
			Expect(reg.Endpoint.Rootless).To(BeTrue())
			Expect(reg.Endpoint.Version).To(Equal("28.5.2"))
		})

		It("doesn't fail when the started engine stays silent", func(ctx context.Context) {
			sb := newSandbox()
			c := sb.config(WithSupervisor(&test.Supervisor{}), WithVerifyTimeout(time.Second))
			reg := Successful(Register(ctx, c))
			Expect(reg.Endpoint).To(BeNil())
			Expect(GinkgoWriter.(fmt.Stringer).String()).To(ContainSubstring("not answering"))
		})

	})

	It("uses the capabilities only as probed", func() {
		sb := newSandbox()
		c := sb.config(WithCapabilities(probe.Capabilities{}))
		Expect(Flags(c, "vfs")).To(ContainElement("--iptables=false"))
	})

})
