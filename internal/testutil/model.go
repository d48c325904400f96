package testutil

import (
	"context"

	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/model"
)

// NewMediaModel returns a mock model that answers every text request with
// text and declares all media capabilities. Images are PNG bytes, video is
// MP4 bytes and music is WAV bytes.
func NewMediaModel(text string) *model.MockModel {
	m := model.NewMockModel("media-mock").
		WithCapabilities(core.CapabilityText, core.CapabilityImage, core.CapabilityVideo, core.CapabilityMusic).
		AddText(text)

	m.ImageFunc = func(ctx context.Context, req model.ImageRequest) (*model.Media, error) {
		return &model.Media{Data: []byte("png:" + req.Prompt), MIMEType: "image/png"}, nil
	}
	m.VideoFunc = func(ctx context.Context, prompt string) (*model.Media, error) {
		return &model.Media{Data: []byte("mp4"), MIMEType: "video/mp4"}, nil
	}
	m.MusicFunc = func(ctx context.Context, prompt string) (*model.Media, error) {
		return &model.Media{Data: []byte("wav"), MIMEType: "audio/wav"}, nil
	}
	return m
}
