package contentacquirer

import (
	"encoding/json"
	"errors"

	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/payloadregistry"

	"github.com/c360studio/contentpipe/acquire"
)

// PayloadRegistry holds this package's payload registrations. Payload
// registration is instance-based in semstreams (no global registry), so
// the init()-time registrations below go into this package-level instance.
var PayloadRegistry = payloadregistry.New()

func init() {
	err := PayloadRegistry.Register(&payloadregistry.Registration{
		Domain:      "content",
		Category:    "request",
		Version:     "v1",
		Description: "Topic batch acquisition request",
		Factory:     func() any { return &AcquireRequestPayload{} },
	})
	if err != nil {
		panic("failed to register AcquireRequestPayload: " + err.Error())
	}

	err = PayloadRegistry.Register(&payloadregistry.Registration{
		Domain:      "content",
		Category:    "unit",
		Version:     "v1",
		Description: "One chunk of an acquired content unit",
		Factory:     func() any { return &ContentUnitPayload{} },
	})
	if err != nil {
		panic("failed to register ContentUnitPayload: " + err.Error())
	}
}

// AcquireRequestType is the message type for acquisition requests.
var AcquireRequestType = message.Type{Domain: "content", Category: "request", Version: "v1"}

// ContentUnitType is the message type for content unit chunk payloads.
var ContentUnitType = message.Type{Domain: "content", Category: "unit", Version: "v1"}

// AcquireRequestPayload implements message.Payload for topic batch requests.
type AcquireRequestPayload struct {
	// RequestID correlates the request with published units.
	RequestID string `json:"request_id"`

	// Topics is the batch to acquire content for.
	Topics []acquire.Topic `json:"topics"`
}

// Schema returns the message type for Payload interface.
func (p *AcquireRequestPayload) Schema() message.Type { return AcquireRequestType }

// Validate validates the payload for Payload interface.
func (p *AcquireRequestPayload) Validate() error {
	if len(p.Topics) == 0 {
		return errors.New("at least one topic is required")
	}
	for _, topic := range p.Topics {
		if topic.Title == "" {
			return errors.New("topic title is required")
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *AcquireRequestPayload) MarshalJSON() ([]byte, error) {
	type Alias AcquireRequestPayload
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *AcquireRequestPayload) UnmarshalJSON(data []byte) error {
	type Alias AcquireRequestPayload
	return json.Unmarshal(data, (*Alias)(p))
}

// ContentUnitPayload implements message.Payload for one chunk of an
// acquired content unit. Chunks of one unit share UnitIndex and are
// reassembled by ChunkIndex.
type ContentUnitPayload struct {
	// BatchID identifies the acquisition run.
	BatchID string `json:"batch_id"`

	// RequestID echoes the originating request.
	RequestID string `json:"request_id,omitempty"`

	// UnitIndex is the unit's position within the batch.
	UnitIndex int `json:"unit_index"`

	// ChunkIndex and ChunkCount locate this chunk within the unit.
	ChunkIndex int `json:"chunk_index"`
	ChunkCount int `json:"chunk_count"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"source_url"`
	SourceTitle string `json:"source_title"`

	// Content is this chunk's slice of the unit text.
	Content string `json:"content"`
}

// Schema returns the message type for Payload interface.
func (p *ContentUnitPayload) Schema() message.Type { return ContentUnitType }

// Validate validates the payload for Payload interface.
func (p *ContentUnitPayload) Validate() error {
	if p.BatchID == "" {
		return errors.New("batch ID is required")
	}
	if p.Title == "" {
		return errors.New("title is required")
	}
	if p.ChunkIndex < 0 || p.ChunkCount <= 0 || p.ChunkIndex >= p.ChunkCount {
		return errors.New("invalid chunk index")
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *ContentUnitPayload) MarshalJSON() ([]byte, error) {
	type Alias ContentUnitPayload
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ContentUnitPayload) UnmarshalJSON(data []byte) error {
	type Alias ContentUnitPayload
	return json.Unmarshal(data, (*Alias)(p))
}
