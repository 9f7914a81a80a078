package eventstream_test

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docstackco/lectern/pkg/eventstream"
)

func TestEventstream(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Eventstream Suite")
}

var _ = Describe("Event", func() {
	It("marshals DocumentEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.DocumentEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeDocumentIngested,
			EventID:       "evt_123",
			EmittedAt:     now,
			Document: eventstream.DocumentMeta{
				Filename: "handbook.pdf",
				Chunks:   3,
				Size:     2400,
			},
		}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("document"))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeDocumentIngested).To(Equal("lectern.document.ingested"))
		Expect(eventstream.EventTypeDocumentDeleted).To(Equal("lectern.document.deleted"))
	})

	It("provides ErrNilDocumentEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilDocumentEvent).NotTo(BeNil())
		Expect(eventstream.ErrNilDocumentEvent).To(MatchError("nil document event"))
	})
})
