package dreams

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// MediaKind classifies a record's media item.
type MediaKind string

const (
	MediaImage MediaKind = "IMAGE"
	MediaVideo MediaKind = "VIDEO"
	MediaAudio MediaKind = "AUDIO"
)

// MediaItem is an uploaded file referenced by public URL.
type MediaItem struct {
	URL  string    `json:"url"`
	Kind MediaKind `json:"kind"`
	MIME string    `json:"mime"`
}

// Tag is a classification tag attached to a record.
type Tag struct {
	Type   string  `json:"type,omitempty"`
	Value  string  `json:"value"`
	Weight float64 `json:"weight,omitempty"`
}

// UnmarshalJSON accepts both {"value": ...} and the joined dictionary
// shape {"tagDictionary": {"type": ..., "value": ...}}.
func (t *Tag) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type          string  `json:"type"`
		Value         string  `json:"value"`
		Weight        float64 `json:"weight"`
		TagDictionary *struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"tagDictionary"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Tag{Type: raw.Type, Value: raw.Value, Weight: raw.Weight}
	if raw.TagDictionary != nil {
		if raw.TagDictionary.Value != "" {
			t.Value = raw.TagDictionary.Value
		}
		if t.Type == "" {
			t.Type = raw.TagDictionary.Type
		}
	}
	return nil
}

// Record is one dream.
type Record struct {
	ID         string      `json:"id"`
	Summary    string      `json:"summary"`
	RawText    string      `json:"rawText"`
	Emotion    string      `json:"emotion"`
	CreatedAt  time.Time   `json:"createdAt"`
	MediaItems []MediaItem `json:"mediaItems,omitempty"`
	Tags       []Tag       `json:"tags,omitempty"`
}

// LoadRecords reads records from a JSON file holding either
// {"dreams": [...]} or a bare array.
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dreams: read %s: %w", path, err)
	}
	return ParseRecords(data)
}

// ParseRecords decodes the LoadRecords formats.
func ParseRecords(data []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("dreams: decode records: %w", err)
		}
		return records, nil
	}

	var wrapped struct {
		Dreams []Record `json:"dreams"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("dreams: decode records: %w", err)
	}
	return wrapped.Dreams, nil
}
