package trace_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fermicache/trace"
)

var _ = Describe("Read", func() {
	It("parses the blocksize header and access lines", func() {
		input := strings.NewReader(
			"blocksize: 32 1 1\n" +
				"0 0 0 4\n" +
				"1 0 4 4\n" +
				"1 1 8 4\n", // write, must be discarded
		)

		dim, threads, err := trace.Read(input)
		Expect(err).NotTo(HaveOccurred())
		Expect(dim).To(Equal(trace.Dim3{X: 32, Y: 1, Z: 1}))
		Expect(threads).To(HaveLen(2))
		Expect(threads[0].Accesses).To(HaveLen(1))
		Expect(threads[1].Accesses).To(HaveLen(1))
	})

	It("fills gaps for threads that never read", func() {
		input := strings.NewReader(
			"blocksize: 4 1 1\n" +
				"3 0 0 4\n",
		)

		_, threads, err := trace.Read(input)
		Expect(err).NotTo(HaveOccurred())
		Expect(threads).To(HaveLen(4))
		Expect(threads[0].Accesses).To(BeEmpty())
		Expect(threads[3].Accesses).To(HaveLen(1))
	})

	It("rejects an empty trace", func() {
		_, _, err := trace.Read(strings.NewReader(""))
		Expect(err).To(HaveOccurred())
	})

	It("rejects a trace with a header but no accesses", func() {
		_, _, err := trace.Read(strings.NewReader("blocksize: 32 1 1\n"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects a trace with only write accesses", func() {
		input := strings.NewReader(
			"blocksize: 32 1 1\n" +
				"0 1 0 4\n",
		)
		_, _, err := trace.Read(input)
		Expect(err).To(HaveOccurred())
	})

	It("reports a missing file distinctly from a malformed one", func() {
		_, _, err := trace.ReadFile("/nonexistent/path/does/not/exist.trc")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("open trace file"))
	})

	It("computes EndAddress from Address and Bytes", func() {
		input := strings.NewReader(
			"blocksize: 1 1 1\n" +
				"0 0 100 8\n",
		)
		_, threads, err := trace.Read(input)
		Expect(err).NotTo(HaveOccurred())
		Expect(threads[0].Accesses[0].EndAddress).To(BeEquivalentTo(107))
	})
})
