package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/model"
	"google.golang.org/genai"
)

// GenerateImage asks the image model for a single picture. The optional seed
// image is sent inline after the prompt to bias composition.
func (m *Model) GenerateImage(ctx context.Context, req model.ImageRequest) (*model.Media, error) {
	if err := checkSeed(req.Seed); err != nil {
		return nil, err
	}
	parts := []*genai.Part{{Text: req.Prompt}}
	if req.Seed != nil && len(req.Seed.Data) > 0 {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: req.Seed.Data, MIMEType: req.Seed.MIMEType}})
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.opts.ImageModel,
		[]*genai.Content{{Role: "user", Parts: parts}},
		&genai.GenerateContentConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini image error: %w", err)
	}

	blob := firstInline(resp, "image/")
	if blob == nil {
		return nil, fmt.Errorf("image: %w", errNoMedia)
	}
	return &model.Media{Data: blob.Data, MIMEType: blob.MIMEType}, nil
}

// GenerateVideo starts a long running video generation, polls the operation
// until it is done and downloads the first video.
func (m *Model) GenerateVideo(ctx context.Context, prompt string) (*model.Media, error) {
	op, err := m.client.Models.GenerateVideos(ctx, m.opts.VideoModel, prompt, nil, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		AspectRatio:    "16:9",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini video error: %w", err)
	}

	interval := m.opts.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	for !op.Done {
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		op, err = m.client.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return nil, fmt.Errorf("gemini video poll: %w", err)
		}
	}

	if op.Error != nil {
		return nil, fmt.Errorf("gemini video operation failed: %v", op.Error)
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		return nil, fmt.Errorf("video: %w", errNoMedia)
	}

	video := op.Response.GeneratedVideos[0].Video
	mime := video.MIMEType
	if mime == "" {
		mime = "video/mp4"
	}
	if len(video.VideoBytes) > 0 {
		return &model.Media{Data: video.VideoBytes, MIMEType: mime}, nil
	}

	data, err := m.client.Files.Download(ctx, genai.NewDownloadURIFromVideo(video), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini video download: %w", err)
	}
	return &model.Media{Data: data, MIMEType: mime}, nil
}

// GenerateMusic renders an audio track through the audio response modality.
// Raw PCM output is wrapped in a WAV container so it is directly playable.
func (m *Model) GenerateMusic(ctx context.Context, prompt string) (*model.Media, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
	}
	if m.opts.MusicVoice != "" {
		config.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: m.opts.MusicVoice},
			},
		}
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.opts.MusicModel,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}},
		config,
	)
	if err != nil {
		return nil, fmt.Errorf("gemini music error: %w", err)
	}

	blob := firstInline(resp, "audio/")
	if blob == nil {
		return nil, fmt.Errorf("music: %w", errNoMedia)
	}

	if isPCM(blob.MIMEType) {
		wav, err := pcmToWAV(blob.Data, sampleRate(blob.MIMEType), 1, 16)
		if err != nil {
			return nil, err
		}
		return &model.Media{Data: wav, MIMEType: "audio/wav"}, nil
	}
	return &model.Media{Data: blob.Data, MIMEType: blob.MIMEType}, nil
}

func firstInline(resp *genai.GenerateContentResponse, mimePrefix string) *genai.Blob {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 &&
				strings.HasPrefix(p.InlineData.MIMEType, mimePrefix) {
				return p.InlineData
			}
		}
	}
	return nil
}

var errSeedTooLarge = errors.New("gemini: seed image exceeds inline limit")

// checkSeed rejects seeds above the 20MB inline request limit.
func checkSeed(seed *core.Blob) error {
	if seed != nil && len(seed.Data) > 20<<20 {
		return errSeedTooLarge
	}
	return nil
}
