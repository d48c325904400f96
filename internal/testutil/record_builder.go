package testutil

import (
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/dreams"
)

// RecordBuilder provides a fluent helper for constructing dream records.
// Example:
//
//	r := NewRecordBuilder("d1").Summary("Flight").Text("I flew").Tags("sky").Build()
type RecordBuilder struct {
	r dreams.Record
}

// NewRecordBuilder creates a builder for a record with the given id.
func NewRecordBuilder(id string) *RecordBuilder {
	return &RecordBuilder{r: dreams.Record{ID: id, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}
}

// Summary sets the one-line summary (chainable).
func (b *RecordBuilder) Summary(s string) *RecordBuilder { b.r.Summary = s; return b }

// Text sets the raw dream text (chainable).
func (b *RecordBuilder) Text(t string) *RecordBuilder { b.r.RawText = t; return b }

// Emotion sets the dominant emotion (chainable).
func (b *RecordBuilder) Emotion(e string) *RecordBuilder { b.r.Emotion = e; return b }

// Tags appends tag values (chainable).
func (b *RecordBuilder) Tags(values ...string) *RecordBuilder {
	for _, v := range values {
		b.r.Tags = append(b.r.Tags, dreams.Tag{Value: v})
	}
	return b
}

// Image appends an IMAGE media item (chainable).
func (b *RecordBuilder) Image(url, mime string) *RecordBuilder {
	b.r.MediaItems = append(b.r.MediaItems, dreams.MediaItem{URL: url, Kind: dreams.MediaImage, MIME: mime})
	return b
}

// Build returns the record.
func (b *RecordBuilder) Build() dreams.Record {
	out := b.r
	out.Tags = append([]dreams.Tag(nil), b.r.Tags...)
	out.MediaItems = append([]dreams.MediaItem(nil), b.r.MediaItems...)
	return out
}
