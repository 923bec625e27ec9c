package duration_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/quartz/duration"
)

var _ = Describe("Duration", func() {
	It("is finite xor infinite", func() {
		finite := duration.NewUnfixed(3, duration.Base)
		Expect(finite.Finite()).To(BeTrue())
		Expect(finite.Infinite()).To(BeFalse())

		Expect(duration.Infinity.Finite()).To(BeFalse())
		Expect(duration.Infinity.Infinite()).To(BeTrue())
	})

	It("preserves quantity across add then subtract", func() {
		a := duration.NewUnfixed(5, duration.Base)
		b := duration.NewUnfixed(250, duration.Milli)

		sum, err := a.Add(b)
		Expect(err).NotTo(HaveOccurred())

		back, err := sum.Sub(b)
		Expect(err).NotTo(HaveOccurred())

		Expect(back.Compare(a)).To(Equal(0))
	})

	It("round-trips unfixed multiplication by 0.001 then 1000", func() {
		a := duration.NewUnfixed(7, duration.Base)

		shrunk, err := a.MulScalar(0.001)
		Expect(err).NotTo(HaveOccurred())

		restored, err := shrunk.MulScalar(1000)
		Expect(err).NotTo(HaveOccurred())

		Expect(restored.Compare(a)).To(Equal(0))
	})

	It("rejects add between fixed durations of differing precision", func() {
		a := duration.NewFixed(2, duration.Base)
		b := duration.NewFixed(500, duration.Milli)

		_, err := a.Add(b)
		Expect(err).To(HaveOccurred())

		rescaled := duration.NewFixed(2000, duration.Milli)
		sum, err := a.WithFixed(false).Add(rescaled)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Quantity()).To(BeNumerically("~", 4, 1e-9))
	})

	It("adds 2 at base and 500 at milli to a quantity equal to 2500 at milli", func() {
		d := duration.NewUnfixed(2, duration.Base)
		e := duration.NewUnfixed(500, duration.Milli)

		sum, err := d.Add(e)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Quantity()).To(BeNumerically("~", 2.5, 1e-9))

		asMilli := duration.NewUnfixed(2500, duration.Milli)
		Expect(sum.Compare(asMilli)).To(Equal(0))
	})

	It("propagates infinity without coarsening", func() {
		inf := duration.Infinity
		finite := duration.NewUnfixed(3, duration.Base)

		sum, err := inf.Add(finite)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Infinite()).To(BeTrue())
		Expect(sum.Precision()).To(Equal(duration.Base))
	})

	It("rejects NaN multipliers", func() {
		a := duration.NewUnfixed(1, duration.Base)
		nan := 0.0
		nan = nan / nan

		_, err := a.MulScalar(nan)
		Expect(err).To(HaveOccurred())
	})

	It("computes quantity equality across precisions for equals? vs <=>", func() {
		a := duration.NewUnfixed(1, duration.Base)
		b := duration.NewUnfixed(1000, duration.Milli)

		Expect(a.Equals(b)).To(BeFalse())
		Expect(a.Compare(b)).To(Equal(0))
	})

	It("builds a duration from a fraction via From", func() {
		d := duration.From(0.5)
		Expect(d.Precision()).To(Equal(duration.Milli))
		Expect(d.Multiplier()).To(Equal(500.0))
		Expect(d.Quantity()).To(BeNumerically("~", 0.5, 1e-9))
	})
})
