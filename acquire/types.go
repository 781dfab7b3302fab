// Package acquire turns topics with candidate resources into content units.
// Each topic's resources are fetched from the web; topics whose resources
// all fail to yield substantial content fall back to model-generated
// overview material, clearly marked as such.
package acquire

import (
	"encoding/json"
	"fmt"
	"os"
)

// Sentinel source values marking units whose content was generated rather
// than fetched. Downstream consumers rely on these exact strings to
// distinguish synthetic material from real web content.
const (
	SourceURLGenerated   = "AI Generated"
	SourceTitleGenerated = "AI Knowledge Base"
)

// Resource is one candidate web source for a topic.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Topic is a unit of subject matter to acquire content for.
type Topic struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Resources   []Resource `json:"resources,omitempty"`
}

// ContentUnit is one piece of acquired content, attributed to its source.
type ContentUnit struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"source_url"`
	SourceTitle string `json:"source_title"`
	Content     string `json:"content"`
}

// Generated reports whether the unit's content came from the model rather
// than a fetched page.
func (u ContentUnit) Generated() bool {
	return u.SourceURL == SourceURLGenerated
}

// Result is the outcome of acquiring a batch of topics. Units preserve
// topic order regardless of completion order.
type Result struct {
	BatchID   string        `json:"batch_id"`
	Units     []ContentUnit `json:"units"`
	Fetched   int           `json:"fetched"`
	Generated int           `json:"generated"`
}

// LoadTopics reads a JSON topic batch file: either a bare array of topics
// or an object with a "topics" field.
func LoadTopics(path string) ([]Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topic batch: %w", err)
	}
	return ParseTopics(data)
}

// ParseTopics decodes topic batch JSON.
func ParseTopics(data []byte) ([]Topic, error) {
	var topics []Topic
	if err := json.Unmarshal(data, &topics); err == nil {
		return topics, nil
	}

	var wrapper struct {
		Topics []Topic `json:"topics"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parse topic batch: %w", err)
	}
	if wrapper.Topics == nil {
		return nil, fmt.Errorf("parse topic batch: no topics found")
	}
	return wrapper.Topics, nil
}
