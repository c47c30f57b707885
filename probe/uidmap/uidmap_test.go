// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package uidmap

import (
	"context"

	"github.com/siemens/turtlenest/internal/test"
	"github.com/siemens/turtlenest/probe"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ID mapping helpers", func() {

	DescribeTable("probing",
		func(binaries []string, expectedPresent bool, expectedRemediation string) {
			res := (&Prober{}).Probe(context.Background(),
				probe.Host{Runner: test.NewRunner(binaries...)})
			Expect(res.Present).To(Equal(expectedPresent))
			if expectedPresent {
				Expect(res.Remediation).To(BeEmpty())
				return
			}
			Expect(res.Remediation).To(ContainElement(expectedRemediation))
		},
		Entry("both helpers", []string{"newuidmap", "newgidmap"}, true, ""),
		Entry("Debian", []string{"newuidmap", "apt-get"}, false, "apt-get install -y uidmap"),
		Entry("Fedora", []string{"dnf"}, false, "dnf install -y shadow-utils"),
		Entry("CentOS 7", []string{"yum"}, false, "yum install -y shadow-utils46-newxidmap"),
		Entry("unknown", []string{}, false, "# install the newuidmap and newgidmap binaries using your package manager"),
	)

})
