package tool

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type dreamSummary struct {
	ID      int      `json:"id"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags,omitempty"`
	secret  string
}

type hooked struct{ v string }

func (h hooked) MarshalJSON() ([]byte, error) { return json.Marshal(map[string]string{"hooked": h.v}) }

type scalarHook struct{}

func (scalarHook) MarshalJSON() ([]byte, error) { return []byte(`"scalar"`), nil }

type brokenHook struct {
	Name string `json:"name"`
}

func (brokenHook) MarshalJSON() ([]byte, error) { return nil, errors.New("hook failed") }

type node struct {
	Name string `json:"name"`
	Next *node  `json:"next"`
}

func TestNormalize(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	var nilPtr *dreamSummary
	var nilSlice []string

	tests := []struct {
		name string
		in   any
		want map[string]any
	}{
		{name: "nil", in: nil, want: map[string]any{}},
		{name: "nil pointer", in: nilPtr, want: map[string]any{}},
		{name: "string", in: "ok", want: map[string]any{"result": "ok"}},
		{name: "int", in: 42, want: map[string]any{"result": 42}},
		{name: "bool", in: true, want: map[string]any{"result": true}},
		{name: "slice", in: []any{"a", 1}, want: map[string]any{"items": []any{"a", 1.0}}},
		{name: "nil slice", in: nilSlice, want: map[string]any{"items": []any{}}},
		{name: "array", in: [2]int{1, 2}, want: map[string]any{"items": []any{1.0, 2.0}}},
		{name: "time", in: ts, want: map[string]any{"result": "2024-03-01T12:30:00Z"}},
		{name: "time pointer", in: &ts, want: map[string]any{"result": "2024-03-01T12:30:00Z"}},
		{name: "bytes", in: []byte("hi"), want: map[string]any{"result": "aGk="}},
		{
			name: "struct",
			in:   dreamSummary{ID: 7, Summary: "flying", secret: "x"},
			want: map[string]any{"id": 7.0, "summary": "flying"},
		},
		{
			name: "struct pointer",
			in:   &dreamSummary{ID: 1, Tags: []string{"sky"}},
			want: map[string]any{"id": 1.0, "summary": "", "tags": []any{"sky"}},
		},
		{name: "map", in: map[string]int{"a": 1}, want: map[string]any{"a": 1.0}},
		{name: "hook object", in: hooked{v: "yes"}, want: map[string]any{"hooked": "yes"}},
		{name: "hook scalar", in: scalarHook{}, want: map[string]any{"result": "scalar"}},
		{name: "hook failure deep copies", in: brokenHook{Name: "n"}, want: map[string]any{"name": "n"}},
		{name: "raw message", in: json.RawMessage(`{"a":true}`), want: map[string]any{"a": true}},
		{name: "complex", in: complex(1, 2), want: map[string]any{"result": "(1+2i)"}},
		{name: "NaN", in: math.NaN(), want: map[string]any{"result": "NaN"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Circular(t *testing.T) {
	n := &node{Name: "a"}
	n.Next = n

	got := Normalize(n)
	assert.Equal(t, "a", got["name"])
	assert.Equal(t, circularMarker, got["next"])

	m := map[string]any{"k": "v"}
	m["self"] = m
	got = Normalize(m)
	assert.Equal(t, "v", got["k"])
	assert.Equal(t, circularMarker, got["self"])
}

func TestNormalize_ChanAndFunc(t *testing.T) {
	got := Normalize(make(chan int))
	assert.IsType(t, "", got["result"])

	got = Normalize(func() {})
	assert.IsType(t, "", got["result"])

	got = Normalize(map[string]any{"ch": make(chan int), "n": 1})
	assert.Equal(t, int64(1), got["n"])
	assert.IsType(t, "", got["ch"])
}

func TestNormalize_OutputIsJSONSafe(t *testing.T) {
	n := &node{Name: "loop"}
	n.Next = n
	inputs := []any{nil, 1, "x", []int{1}, time.Now(), n, map[string]any{"f": math.Inf(1)}}
	for _, in := range inputs {
		_, err := json.Marshal(Normalize(in))
		assert.NoError(t, err)
	}
}
