package extract_test

import (
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docstackco/lectern/pkg/extract"
)

func TestExtract(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Extract Suite")
}

var _ = Describe("Text", func() {
	It("passes plain text through", func() {
		text, err := extract.Text("notes.txt", []byte("hello world"))
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("hello world"))
	})

	It("normalizes carriage returns", func() {
		text, err := extract.Text("notes.txt", []byte("a\r\nb\rc"))
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("a\nb\nc"))
	})

	It("rejects empty files", func() {
		_, err := extract.Text("notes.txt", nil)
		Expect(errors.Is(err, extract.ErrExtraction)).To(BeTrue())
	})

	It("rejects whitespace-only files", func() {
		_, err := extract.Text("notes.txt", []byte("   \n\t  "))
		Expect(errors.Is(err, extract.ErrExtraction)).To(BeTrue())
	})

	It("rejects binary input masquerading as text", func() {
		_, err := extract.Text("blob.bin", []byte{0x00, 0x01, 0x02, 0xff})
		Expect(errors.Is(err, extract.ErrExtraction)).To(BeTrue())
	})

	It("rejects corrupt pdf input", func() {
		_, err := extract.Text("broken.pdf", []byte("definitely not a pdf"))
		Expect(errors.Is(err, extract.ErrExtraction)).To(BeTrue())
	})
})
