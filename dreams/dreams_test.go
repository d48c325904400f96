package dreams

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecords(t *testing.T) {
	t.Run("wrapped", func(t *testing.T) {
		records, err := ParseRecords([]byte(`{"dreams":[{"id":"d1","summary":"Flight","rawText":"I flew","tags":[{"tagDictionary":{"type":"ACTION","value":"flying"}}]}]}`))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "d1", records[0].ID)
		assert.Equal(t, "flying", records[0].Tags[0].Value)
		assert.Equal(t, "ACTION", records[0].Tags[0].Type)
	})

	t.Run("bare array", func(t *testing.T) {
		records, err := ParseRecords([]byte(`[{"id":"a","tags":[{"value":"sea"}]},{"id":"b"}]`))
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "sea", records[0].Tags[0].Value)
	})

	t.Run("empty", func(t *testing.T) {
		records, err := ParseRecords([]byte("  "))
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseRecords([]byte(`{"dreams":`))
		assert.Error(t, err)
	})
}

func TestLoadRecordsMissingFile(t *testing.T) {
	_, err := LoadRecords(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuildCorpus(t *testing.T) {
	records := []Record{
		{Summary: "Flight", RawText: "I flew over a city", Emotion: "JOY", Tags: []Tag{{Value: "flying"}, {Value: "city"}}},
		{RawText: "A locked door"},
	}

	corpus := BuildCorpus(records)
	assert.Equal(t,
		"Dream Summary: Flight\nDream Content: I flew over a city\nEmotion: JOY\nTags: flying, city"+
			"\n\n---\n\n"+
			"Dream Summary: Untitled\nDream Content: A locked door\nEmotion: Unknown\nTags: None",
		corpus)
	assert.Equal(t, "", BuildCorpus(nil))
}

func TestSeedImages(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "uploads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "uploads", "a.png"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "uploads", "b.png"), []byte("b"), 0o644))

	records := []Record{
		{MediaItems: []MediaItem{
			{URL: "/uploads/a.png", Kind: MediaImage, MIME: "image/png"},
			{URL: "/uploads/clip.mp4", Kind: MediaVideo, MIME: "video/mp4"},
		}},
		{MediaItems: []MediaItem{
			{URL: "/uploads/b.png", Kind: MediaImage, MIME: "image/png"},
			{URL: "/uploads/missing.png", Kind: MediaImage, MIME: "image/png"},
		}},
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5; i++ {
		seeds := SeedImages(records, root, 2, rng)
		assert.LessOrEqual(t, len(seeds), 2)
		for _, s := range seeds {
			assert.Equal(t, "image/png", s.MIMEType)
			assert.Contains(t, []string{"a", "b"}, string(s.Data))
		}
	}

	all := SeedImages(records, root, 10, rng)
	assert.Len(t, all, 2)
	assert.Empty(t, SeedImages(records, root, 0, rng))
	assert.Empty(t, SeedImages(nil, root, 2, nil))
}

func TestSeedImages_StaysInsidePublicRoot(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "public")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "uploads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "uploads", "ok.png"), []byte("ok"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "secret.png"), []byte("secret"), 0o644))

	records := []Record{{MediaItems: []MediaItem{
		{URL: "/../secret.png", Kind: MediaImage, MIME: "image/png"},
		{URL: "../secret.png", Kind: MediaImage, MIME: "image/png"},
		{URL: "/uploads/../../secret.png", Kind: MediaImage, MIME: "image/png"},
		{URL: "/uploads/ok.png", Kind: MediaImage, MIME: "image/png"},
	}}}

	seeds := SeedImages(records, root, 10, rand.New(rand.NewSource(1)))
	require.Len(t, seeds, 1)
	assert.Equal(t, "ok", string(seeds[0].Data))
}

func TestParseClassification(t *testing.T) {
	t.Run("fenced", func(t *testing.T) {
		c, err := ParseClassification("```json\n{\"summary\":\"A flight\",\"tags\":[{\"type\":\"ACTION\",\"value\":\"flying\",\"weight\":0.8}],\"sentiment\":0.4,\"emotion\":\"joy\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "A flight", c.Summary)
		assert.Equal(t, "JOY", c.Emotion)
		assert.Equal(t, 0.4, c.Sentiment)
		assert.Equal(t, 0.5, c.Valence)
		require.Len(t, c.Tags, 1)
		assert.Equal(t, 0.8, c.Tags[0].Weight)
	})

	t.Run("clamped", func(t *testing.T) {
		c, err := ParseClassification(`{"sentiment":-3,"arousal":2}`)
		require.NoError(t, err)
		assert.Equal(t, -1.0, c.Sentiment)
		assert.Equal(t, 1.0, c.Arousal)
		assert.NotNil(t, c.Tags)
	})

	t.Run("garbage", func(t *testing.T) {
		c, err := ParseClassification("I cannot classify this")
		assert.Error(t, err)
		assert.Equal(t, DefaultClassification(), c)
	})
}

func TestAnalysisPrompt(t *testing.T) {
	r := Record{
		RawText:   "Teeth falling out",
		CreatedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		Tags:      []Tag{{Value: "teeth"}},
	}
	assert.Equal(t,
		"Dream Summary: Untitled\nDream Content: Teeth falling out\nEmotion: Unknown\nDate: 2024-03-01T08:00:00Z\nTags: teeth",
		AnalysisPrompt(r))
}

func TestAgents(t *testing.T) {
	s := store.NewInMemoryStore()
	createTag, err := NewCreateTagTool(s)
	require.NoError(t, err)

	classifier := NewClassifierAgent(createTag)
	assert.Equal(t, "Dream Classifier", classifier.Name())
	assert.Equal(t, ClassifierInstructions, classifier.Instructions())
	require.Len(t, classifier.Tools(), 1)

	analyst := NewAnalystAgent()
	assert.Equal(t, "Dream Analyst", analyst.Name())
	assert.Empty(t, analyst.Tools())
}

func TestCreateTagTool(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	createTag, err := NewCreateTagTool(s)
	require.NoError(t, err)

	params := createTag.Parameters()
	assert.ElementsMatch(t, []any{"type", "value", "dreamId"}, params["required"])

	out, err := createTag.Call(ctx, map[string]any{"type": "place", "value": "ocean", "dreamId": "d1"})
	require.NoError(t, err)
	res := out.(*CreateTagResult)
	assert.Equal(t, "PLACE", res.TagDict.Type)
	assert.Equal(t, "ocean", res.TagDict.Value)
	assert.Equal(t, 1.0, res.DreamTag.Weight)

	out, err = createTag.Call(ctx, map[string]any{"type": "PLACE", "value": "ocean", "dreamId": "d2", "weight": 0.3})
	require.NoError(t, err)
	assert.Equal(t, res.TagDict.ID, out.(*CreateTagResult).TagDict.ID)

	_, err = createTag.Call(ctx, map[string]any{"type": "PLACE", "value": "ocean"})
	assert.Error(t, err)
}

func TestPersistTags(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()

	require.NoError(t, PersistTags(ctx, s, "d1", []Tag{{Type: "COLOR", Value: "blue"}, {Type: "EMOTION", Value: "awe", Weight: 0.6}}))

	tags, err := s.DreamTags(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, 0.6, tags[1].Weight)
}

func TestParseClassificationUnknownEmotion(t *testing.T) {
	c, err := ParseClassification(`{"emotion":"bewildered"}`)
	require.NoError(t, err)
	assert.Equal(t, "", c.Emotion)
}
