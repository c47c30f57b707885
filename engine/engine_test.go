// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package engine

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/siemens/turtlenest/internal/test"
	"github.com/thediveo/lxkns/model"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/fdooze"
	. "github.com/thediveo/success"
)

var _ = Describe("engine API endpoints", func() {

	BeforeEach(test.LogToGinkgo)

	BeforeEach(func() {
		goodfds := Filedescriptors()
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(goroutinesUnwindTimeout).WithPolling(goroutinesUnwindPolling).
				ShouldNot(HaveLeaked(goodgos))
			Eventually(Filedescriptors).WithTimeout(goroutinesUnwindTimeout).WithPolling(goroutinesUnwindPolling).
				ShouldNot(HaveLeakedFds(goodfds))
		})
	})

	It("resolves symbolic links", func() {
		dir := GinkgoT().TempDir()
		Expect(os.Mkdir(filepath.Join(dir, "run"), 0o755)).To(Succeed())
		Expect(os.Symlink("run", filepath.Join(dir, "var-run"))).To(Succeed())
		Expect(Successful(Resolve(filepath.Join(dir, "var-run", "docker.sock")))).To(
			Equal(filepath.Join(dir, "run", "docker.sock")))
	})

	It("finds the serving process", func(ctx context.Context) {
		api := filepath.Join(GinkgoT().TempDir(), "docker.sock")
		stop := test.FakeEngine(api, "1.0.0", false)
		defer stop()
		pid, closer := pidOfUDS(ctx, api)
		closer()
		Expect(pid).To(Equal(model.PIDType(os.Getpid())))

		pid, closer = pidOfUDS(ctx, api+".missing")
		closer()
		Expect(pid).To(BeZero())
	})

	It("probes reachable engines", func(ctx context.Context) {
		api := filepath.Join(GinkgoT().TempDir(), "docker.sock")
		stop := test.FakeEngine(api, "28.5.2", true)
		defer stop()
		ep := Successful(Probe(ctx, api))
		Expect(ep.API).To(Equal(api))
		Expect(ep.Version).To(Equal("28.5.2"))
		Expect(ep.Rootless).To(BeTrue())
		Expect(uuid.Parse(ep.ID)).Error().NotTo(HaveOccurred())
		Expect(ep.PID).To(Equal(model.PIDType(os.Getpid())))
	})

	It("tells rootful engines", func(ctx context.Context) {
		api := filepath.Join(GinkgoT().TempDir(), "docker.sock")
		stop := test.FakeEngine(api, "28.5.2", false)
		defer stop()
		Expect(Successful(Probe(ctx, api)).Rootless).To(BeFalse())
	})

	DescribeTable("unreachable endpoints",
		func(setup func(api string)) {
			api := filepath.Join(GinkgoT().TempDir(), "docker.sock")
			setup(api)
			Expect(Probe(context.Background(), api)).Error().To(MatchError(ErrUnreachable))
		},
		Entry("missing", func(string) {}),
		Entry("not a socket", func(api string) {
			Expect(os.WriteFile(api, nil, 0o666)).To(Succeed())
		}),
		Entry("engine gone", func(api string) {
			stop := test.FakeEngine(api, "0.0.0", false)
			stop()
		}),
	)

	It("waits for an engine to become reachable", func(ctx context.Context) {
		api := filepath.Join(GinkgoT().TempDir(), "docker.sock")
		stopch := make(chan func(), 1)
		go func() {
			defer GinkgoRecover()
			time.Sleep(200 * time.Millisecond)
			stopch <- test.FakeEngine(api, "28.5.2", true)
		}()
		defer func() { (<-stopch)() }()
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		ep := Successful(WaitReachable(ctx, api, 50*time.Millisecond))
		Expect(ep.Version).To(Equal("28.5.2"))
	})

	It("gives up waiting", func(ctx context.Context) {
		api := filepath.Join(GinkgoT().TempDir(), "docker.sock")
		ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()
		Expect(WaitReachable(ctx, api, 50*time.Millisecond)).Error().To(MatchError(ErrUnreachable))
	})

})
