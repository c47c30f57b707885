// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package turtlenest

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("installation failures", func() {

	It("maps outcomes to exit codes", func() {
		Expect(ExitCode(nil)).To(BeZero())
		Expect(ExitCode(errors.New("D'OH!"))).To(Equal(1))
		Expect(ExitCode(newError(Capability, "missing", nil))).To(Equal(1))
	})

	It("wraps causes and classifies", func() {
		cause := errors.New("connection reset")
		err := fmt.Errorf("outer: %w", newError(Transient, "cannot download", cause, "retry later"))
		Expect(err).To(MatchError(cause))
		Expect(err).To(MatchError(ContainSubstring("cannot download, reason: connection reset")))
		Expect(KindOf(err)).To(Equal(Transient))
		Expect(KindOf(cause)).To(BeZero())

		var e *Error
		Expect(errors.As(err, &e)).To(BeTrue())
		Expect(e.Hint()).To(Equal("retry later"))
	})

	DescribeTable("kind names",
		func(kind Kind, expected string) {
			Expect(kind.String()).To(Equal(expected))
		},
		Entry(nil, Environment, "environment"),
		Entry(nil, Capability, "capability"),
		Entry(nil, Transient, "transient"),
		Entry(nil, Conflict, "conflict"),
		Entry(nil, Kind(0), "unknown"),
	)

})
