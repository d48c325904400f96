package dreams

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/samber/lo"
)

// CorpusSeparator joins per-record blocks.
const CorpusSeparator = "\n\n---\n\n"

// tagValues returns the non-empty tag values of r.
func tagValues(r Record) []string {
	return lo.FilterMap(r.Tags, func(t Tag, _ int) (string, bool) {
		v := strings.TrimSpace(t.Value)
		return v, v != ""
	})
}

func joinedTags(r Record) string {
	values := tagValues(r)
	if len(values) == 0 {
		return "None"
	}
	return strings.Join(values, ", ")
}

// Block renders one record for the corpus.
func Block(r Record) string {
	return strings.TrimSpace(fmt.Sprintf("Dream Summary: %s\nDream Content: %s\nEmotion: %s\nTags: %s",
		lo.Ternary(r.Summary != "", r.Summary, "Untitled"),
		r.RawText,
		lo.Ternary(r.Emotion != "", r.Emotion, "Unknown"),
		joinedTags(r),
	))
}

// BuildCorpus renders every record and joins the blocks. No records yields
// "".
func BuildCorpus(records []Record) string {
	return strings.Join(lo.Map(records, func(r Record, _ int) string { return Block(r) }), CorpusSeparator)
}

// SeedImages picks up to n random IMAGE media items across records and
// reads them below publicRoot. Picked items whose file is missing or whose
// URL resolves outside publicRoot are skipped, so fewer than n blobs may be
// returned. rng is not safe for concurrent use; nil uses the shared source.
func SeedImages(records []Record, publicRoot string, n int, rng *rand.Rand) []core.Blob {
	if n <= 0 {
		return nil
	}

	images := lo.Filter(
		lo.FlatMap(records, func(r Record, _ int) []MediaItem { return r.MediaItems }),
		func(m MediaItem, _ int) bool { return m.Kind == MediaImage && m.URL != "" },
	)
	if rng != nil {
		rng.Shuffle(len(images), func(i, j int) { images[i], images[j] = images[j], images[i] })
	} else {
		images = lo.Shuffle(images)
	}
	if len(images) > n {
		images = images[:n]
	}

	root, err := filepath.Abs(publicRoot)
	if err != nil {
		return nil
	}

	var seeds []core.Blob
	for _, item := range images {
		rel := filepath.FromSlash(strings.TrimLeft(item.URL, "/"))
		full := filepath.Join(root, rel)
		if inside, err := filepath.Rel(root, full); err != nil || inside == ".." ||
			strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
			continue
		}
		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		seeds = append(seeds, core.Blob{Data: data, MIMEType: item.MIME, Name: filepath.Base(rel)})
	}
	return seeds
}
