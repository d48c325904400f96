package dreamscape

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/agent"
	"github.com/jason-allen-oneal/dreamscape-ai/artifact"
	"github.com/jason-allen-oneal/dreamscape-ai/cache"
	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/dreams"
	"github.com/jason-allen-oneal/dreamscape-ai/internal/testutil"
	"github.com/jason-allen-oneal/dreamscape-ai/model"
	"github.com/jason-allen-oneal/dreamscape-ai/provider"
	"github.com/jason-allen-oneal/dreamscape-ai/store"
	"github.com/jason-allen-oneal/dreamscape-ai/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time         { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newAdapter(m model.Model) *provider.Adapter {
	return provider.NewAdapter(m, func(o *provider.Options) {
		o.Retry = &provider.RetryPolicy{MaxAttempts: 1}
		o.CallTimeout = 0
	})
}

type fixture struct {
	ds        *Dreamscape
	clock     *clock
	store     *store.InMemoryStore
	artifacts *artifact.InMemoryStore
}

func newFixture(t *testing.T, m model.Model) *fixture {
	t.Helper()
	f := &fixture{
		clock:     &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		store:     store.NewInMemoryStore(),
		artifacts: artifact.NewInMemoryStore(),
	}
	ds, err := New(func(o *Options) {
		o.Provider = newAdapter(m)
		o.Store = f.store
		o.Artifacts = f.artifacts
		o.Now = f.clock.Now
		o.Rand = rand.New(rand.NewSource(7))
	})
	require.NoError(t, err)
	f.ds = ds
	return f
}

func TestNewRequiresProvider(t *testing.T) {
	_, err := New()
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestSynthesizeWorld(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutil.NewMediaModel("A violet sea under twin moons."))

	m, err := f.ds.SynthesizeWorld(ctx, "Dream Content: the sea", nil)
	require.NoError(t, err)
	assert.Equal(t, "A violet sea under twin moons.", m.Description)
	assert.Equal(t, "/generated/background.png", m.Images[0])
	assert.Equal(t, "/generated/music.wav", m.Music)
	assert.Empty(t, m.Recovered)

	entry, err := f.ds.CachedManifest(ctx)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.False(t, entry.Decision.Stale)
	assert.Equal(t, m.Images, entry.Manifest.Images)
	assert.Equal(t, m.Description, entry.Manifest.Description)
}

func TestCachedManifestEmpty(t *testing.T) {
	f := newFixture(t, testutil.NewMediaModel("desc"))
	entry, err := f.ds.CachedManifest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestSynthesizeWorldDescriptionFailure(t *testing.T) {
	ctx := context.Background()
	m := model.NewMockModel("broken").AddError(errors.New("quota exceeded"))
	f := newFixture(t, m)

	manifest, err := f.ds.SynthesizeWorld(ctx, "corpus", nil)
	assert.ErrorIs(t, err, world.ErrDescriptionFailed)
	assert.Nil(t, manifest)
	assert.Empty(t, f.store.Keys())
	assert.Empty(t, f.artifacts.List())
}

func TestSynthesizeWorldPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutil.NewMediaModel("desc"))
	f.store.Fail = map[string]error{cache.KeyLastAssets: errors.New("disk full")}

	m, err := f.ds.SynthesizeWorld(ctx, "corpus", nil)
	require.Error(t, err)
	require.NotNil(t, m)

	var perr *cache.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, cache.KeyLastAssets, perr.Key)
	assert.Equal(t, "desc", m.Description)
}

func TestWorldStalenessGate(t *testing.T) {
	ctx := context.Background()
	mm := testutil.NewMediaModel("desc")
	f := newFixture(t, mm)

	first, generated, err := f.ds.World(ctx, "corpus", nil, false)
	require.NoError(t, err)
	assert.True(t, generated)
	calls := mm.Calls()

	f.clock.Advance(10 * time.Minute)
	cached, generated, err := f.ds.World(ctx, "corpus", nil, false)
	require.NoError(t, err)
	assert.False(t, generated)
	assert.Equal(t, first.Images, cached.Images)
	assert.Equal(t, calls, mm.Calls())

	_, generated, err = f.ds.World(ctx, "corpus", nil, true)
	require.NoError(t, err)
	assert.True(t, generated)

	f.clock.Advance(31 * time.Minute)
	_, generated, err = f.ds.World(ctx, "corpus", nil, false)
	require.NoError(t, err)
	assert.True(t, generated)
}

func TestWorldRegeneratesWhenAssetMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutil.NewMediaModel("desc"))

	_, _, err := f.ds.World(ctx, "corpus", nil, false)
	require.NoError(t, err)
	require.NoError(t, f.artifacts.Delete("music.wav"))

	_, generated, err := f.ds.World(ctx, "corpus", nil, false)
	require.NoError(t, err)
	assert.True(t, generated)
}

func TestWorldFromRecords(t *testing.T) {
	ctx := context.Background()
	mm := testutil.NewMediaModel("desc")
	f := newFixture(t, mm)

	records := []dreams.Record{
		testutil.NewRecordBuilder("d1").Summary("Flight").Text("I flew").Tags("sky").Build(),
	}
	_, generated, err := f.ds.WorldFromRecords(ctx, records, false)
	require.NoError(t, err)
	assert.True(t, generated)

	req := mm.Requests()[0]
	assert.Contains(t, req.Contents[0].Text(), "Dream Summary: Flight")
}

func TestWorldFromRecordsConcurrent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "uploads"), 0o755))
	b := testutil.NewRecordBuilder("d1").Summary("Flight").Text("I flew")
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, "uploads", name), []byte(name), 0o644))
		b.Image("/uploads/"+name, "image/png")
	}
	records := []dreams.Record{b.Build()}

	f := newFixture(t, testutil.NewMediaModel("desc"))
	f.ds.opts.PublicRoot = root

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, errs[i] = f.ds.WorldFromRecords(context.Background(), records, true)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestRunAgent(t *testing.T) {
	mm := model.NewMockModel("m").AddText("hello there")
	f := newFixture(t, mm)

	res, err := f.ds.RunAgent(context.Background(), agent.New("Greeter"), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", res.FinalOutput)
	assert.Equal(t, 1, res.Sends)
}

func TestClassify(t *testing.T) {
	ctx := context.Background()
	mm := model.NewMockModel("m").
		AddFunctionCalls(core.FunctionCall{ID: "c1", Name: "createTag", Arguments: `{"type":"PLACE","value":"ocean","dreamId":"d1"}`}).
		AddText("```json\n{\"summary\":\"At sea\",\"tags\":[{\"type\":\"PLACE\",\"value\":\"ocean\",\"weight\":0.7},{\"type\":\"COLOR\",\"value\":\"blue\"}],\"emotion\":\"CALM\"}\n```")
	f := newFixture(t, mm)

	c, res, err := f.ds.Classify(ctx, "I drifted on a blue ocean", "d1")
	require.NoError(t, err)
	assert.Equal(t, "At sea", c.Summary)
	assert.Equal(t, "CALM", c.Emotion)
	assert.Equal(t, 2, res.Sends)

	req := mm.Requests()[0]
	require.Len(t, req.Tools, 1)
	assert.Equal(t, "createTag", req.Tools[0].Function.Name)

	tags, err := f.store.DreamTags(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "ocean", tags[0].Value)
	assert.Equal(t, 1.0, tags[0].Weight)
	assert.Equal(t, 0.7, tags[1].Weight)
	assert.Equal(t, "blue", tags[2].Value)
}

func TestClassifyWithoutDreamID(t *testing.T) {
	mm := model.NewMockModel("m").AddText("not json")
	f := newFixture(t, mm)

	c, _, err := f.ds.Classify(context.Background(), "text", "")
	require.NoError(t, err)
	assert.Equal(t, 0.5, c.Valence)
	assert.Empty(t, mm.Requests()[0].Tools)
}

func TestAnalyze(t *testing.T) {
	mm := model.NewMockModel("m").AddText("## Overall Theme\nFreedom")
	f := newFixture(t, mm)

	r := testutil.NewRecordBuilder("d1").Text("I flew").Build()
	out, err := f.ds.Analyze(context.Background(), r)
	require.NoError(t, err)
	assert.Contains(t, out, "Freedom")
	assert.Contains(t, mm.Requests()[0].Instructions, "expert dream analyst")
	assert.Contains(t, mm.Requests()[0].Contents[0].Text(), "Dream Content: I flew")
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutil.NewMediaModel("desc"))

	st, err := f.ds.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Stale)
	assert.Equal(t, cache.ReasonNeverGenerated, st.Reason)

	_, err = f.ds.SynthesizeWorld(ctx, "corpus", nil)
	require.NoError(t, err)

	f.clock.Advance(45 * time.Minute)
	st, err = f.ds.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Stale)
	assert.Equal(t, cache.ReasonExpired, st.Reason)
	assert.Equal(t, "desc", st.LastDescription)
	require.NotNil(t, st.LastAssets)
	assert.Equal(t, "/generated/music.wav", st.LastAssets.Music)
}
