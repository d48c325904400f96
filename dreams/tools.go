package dreams

import (
	"context"
	"errors"
	"strings"

	"github.com/jason-allen-oneal/dreamscape-ai/store"
	"github.com/jason-allen-oneal/dreamscape-ai/tool"
)

// TagStore persists tags. store.InMemoryStore and store.SQLStore implement it.
type TagStore interface {
	UpsertTag(ctx context.Context, tagType, value string) (*store.Tag, error)
	LinkTag(ctx context.Context, dreamID, tagID string, weight float64) (*store.DreamTag, error)
}

// CreateTagArgs is the createTag parameter schema.
type CreateTagArgs struct {
	Type    string  `json:"type" jsonschema:"description=Tag category: ENTITY/ACTION/PLACE/EMOTION/ARCHETYPE/COLOR/SENSORY"`
	Value   string  `json:"value" jsonschema:"description=Tag text"`
	Weight  float64 `json:"weight,omitempty" jsonschema:"description=Relevance weight (default 1)"`
	DreamID string  `json:"dreamId" jsonschema:"description=Dream to link the tag to"`
}

// CreateTagResult is returned by the createTag tool.
type CreateTagResult struct {
	TagDict  *store.Tag      `json:"tagDict"`
	DreamTag *store.DreamTag `json:"dreamTag"`
}

// CreateTag upserts the dictionary entry and links it to the dream.
func CreateTag(ctx context.Context, ts TagStore, args CreateTagArgs) (*CreateTagResult, error) {
	args.Type = strings.ToUpper(strings.TrimSpace(args.Type))
	args.Value = strings.TrimSpace(args.Value)
	if args.Value == "" {
		return nil, errors.New("createTag: empty value")
	}
	if args.DreamID == "" {
		return nil, errors.New("createTag: empty dreamId")
	}
	if args.Weight == 0 {
		args.Weight = 1
	}

	tag, err := ts.UpsertTag(ctx, args.Type, args.Value)
	if err != nil {
		return nil, err
	}
	link, err := ts.LinkTag(ctx, args.DreamID, tag.ID, args.Weight)
	if err != nil {
		return nil, err
	}
	return &CreateTagResult{TagDict: tag, DreamTag: link}, nil
}

// NewCreateTagTool exposes CreateTag to the model.
func NewCreateTagTool(ts TagStore) (tool.Tool, error) {
	return tool.NewFunctionToolFromStruct(
		"createTag",
		"Create or fetch a tag in the database and link it to a dream",
		CreateTagArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			in := CreateTagArgs{}
			in.Type, _ = args["type"].(string)
			in.Value, _ = args["value"].(string)
			in.DreamID, _ = args["dreamId"].(string)
			if w, ok := args["weight"].(float64); ok {
				in.Weight = w
			}
			return CreateTag(ctx, ts, in)
		},
	)
}

// PersistTags stores every classification tag for dreamID. It stops at the
// first failure.
func PersistTags(ctx context.Context, ts TagStore, dreamID string, tags []Tag) error {
	for _, t := range tags {
		if _, err := CreateTag(ctx, ts, CreateTagArgs{Type: t.Type, Value: t.Value, Weight: t.Weight, DreamID: dreamID}); err != nil {
			return err
		}
	}
	return nil
}
