package logger_test

import (
	"bytes"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docstackco/lectern/pkg/logger"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("NewLoggerWithWriters", func() {
	It("writes info logs to the provided writer", func() {
		var buf bytes.Buffer
		l := logger.NewLoggerWithWriters(false, &buf)
		l.Info("hello")
		Expect(l.Sync()).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("hello"))
	})

	It("emits debug logs when debug is enabled", func() {
		var buf bytes.Buffer
		l := logger.NewLoggerWithWriters(true, &buf)
		l.Debug("verbose detail")
		Expect(l.Sync()).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("verbose detail"))
	})

	It("filters debug logs when debug is disabled", func() {
		var buf bytes.Buffer
		l := logger.NewLoggerWithWriters(false, &buf)
		l.Debug("hidden")
		Expect(l.Sync()).To(Succeed())
		Expect(buf.String()).To(BeEmpty())
	})
})
