// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package subid

import (
	"context"
	"os"
	"path/filepath"

	"github.com/siemens/turtlenest/probe"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

const subids = `# subordinate IDs
root:10000:65536
gopher:100000:65536
gopher:300000:0
1000:200000:1000
gopher:broken
gopher:x:42
`

var _ = Describe("subordinate ID ranges", func() {

	var root string

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		Expect(os.Mkdir(filepath.Join(root, "etc"), 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(root, "etc", "subuid"), []byte(subids), 0o644)).To(Succeed())
	})

	It("finds ranges by user name and ID", func() {
		Expect(Successful(Ranges(filepath.Join(root, "etc", "subuid"), "gopher", 1000))).To(
			HaveExactElements("100000:65536", "200000:1000"))
		Expect(Successful(Ranges(filepath.Join(root, "etc", "subuid"), "nobody", 65534))).To(
			BeEmpty())
	})

	It("reports a missing database", func() {
		Expect(Ranges(filepath.Join(root, "etc", "subgid"), "gopher", 1000)).Error().To(
			MatchError(ContainSubstring("cannot read subordinate ID database")))
	})

	It("probes", func(ctx context.Context) {
		p := &Prober{Database: "/etc/subuid"}
		res := p.Probe(ctx, probe.Host{Root: root, User: "gopher", UID: 1000})
		Expect(res.Present).To(BeTrue())

		res = p.Probe(ctx, probe.Host{Root: root, User: "rustacean", UID: 1001})
		Expect(res.Present).To(BeFalse())
		Expect(res.Remediation).To(HaveExactElements(`echo "rustacean:100000:65536" >> /etc/subuid`))

		p = &Prober{Database: "/etc/subgid"}
		res = p.Probe(ctx, probe.Host{Root: root, User: "gopher", UID: 1000})
		Expect(res.Present).To(BeFalse())
		Expect(res.Remediation).To(HaveExactElements(`echo "gopher:100000:65536" >> /etc/subgid`))
	})

})
