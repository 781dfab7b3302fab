package contentacquirer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360studio/contentpipe/acquire"
)

func TestAcquireRequestPayloadValidate(t *testing.T) {
	valid := &AcquireRequestPayload{
		RequestID: "req-1",
		Topics:    []acquire.Topic{{Title: "Goroutines"}},
	}
	assert.NoError(t, valid.Validate())

	assert.Error(t, (&AcquireRequestPayload{}).Validate(), "empty batch")
	assert.Error(t, (&AcquireRequestPayload{
		Topics: []acquire.Topic{{Description: "no title"}},
	}).Validate())
}

func TestContentUnitPayloadValidate(t *testing.T) {
	valid := &ContentUnitPayload{
		BatchID:     "batch-1",
		Title:       "Goroutines",
		SourceURL:   "https://example.com",
		SourceTitle: "Docs",
		ChunkIndex:  0,
		ChunkCount:  2,
		Content:     "text",
	}
	assert.NoError(t, valid.Validate())

	missing := *valid
	missing.BatchID = ""
	assert.Error(t, missing.Validate())

	badChunk := *valid
	badChunk.ChunkIndex = 2
	assert.Error(t, badChunk.Validate(), "chunk index past count")

	badCount := *valid
	badCount.ChunkCount = 0
	assert.Error(t, badCount.Validate())
}

func TestPayloadSchemas(t *testing.T) {
	assert.Equal(t, "content", AcquireRequestType.Domain)
	assert.Equal(t, "request", AcquireRequestType.Category)
	assert.Equal(t, ContentUnitType, (&ContentUnitPayload{}).Schema())
	assert.Equal(t, AcquireRequestType, (&AcquireRequestPayload{}).Schema())
}
