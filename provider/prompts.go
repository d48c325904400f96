package provider

import (
	"fmt"

	"github.com/jason-allen-oneal/dreamscape-ai/internal/util"
)

// WorldSynthesizerInstructions is the system prompt used by Describe.
const WorldSynthesizerInstructions = `You are a dream world synthesizer that creates a surreal, dreamlike interpretation of collective dreams.
Analyze the dreams provided and synthesize them into a cohesive dream world description covering:
1. Atmosphere: the overall mood and feeling of the dream world
2. Dominant Themes: recurring motifs and ideas across the dreams
3. Emotional Landscape: the emotional tones and how they blend together
4. Visual Elements: colors, textures, light and scenery
5. Symbolic Entities: beings, objects or forces that inhabit the world
6. World Characteristics: the physics, rules and strangeness of the place
Return a single, descriptive paragraph that paints a vivid picture of this dream world.
No markdown or JSON allowed in responses.`

var imageTemplates = map[ImageKind]string{
	ImageBackground: "A surreal, dreamlike, abstract background that captures the essence of the following dream world description: {{.description}}",
	ImageFloating1:  "A surreal, dreamlike, abstract floating object that would exist in the following dream world: {{.description}}",
	ImageFloating2:  "A surreal, dreamlike, abstract floating object that would exist in the following dream world: {{.description}}",
}

const (
	videoTemplate = "A slow, seamless, surreal and dreamlike video drifting through the following dream world: {{.description}}"
	musicTemplate = "Ambient, ethereal dream music that evokes the mood of the following dream world. Hum or sing wordlessly: {{.description}}"
)

// ImagePrompt renders the prompt for kind.
func ImagePrompt(kind ImageKind, description string) (string, error) {
	tmpl, ok := imageTemplates[kind]
	if !ok {
		return "", fmt.Errorf("provider: unknown image kind %q", kind)
	}
	return util.RenderTemplate(tmpl, map[string]any{"description": description})
}

// VideoPrompt renders the video prompt.
func VideoPrompt(description string) (string, error) {
	return util.RenderTemplate(videoTemplate, map[string]any{"description": description})
}

// MusicPrompt renders the music prompt.
func MusicPrompt(description string) (string, error) {
	return util.RenderTemplate(musicTemplate, map[string]any{"description": description})
}
