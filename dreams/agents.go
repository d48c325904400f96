package dreams

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/agent"
	"github.com/jason-allen-oneal/dreamscape-ai/tool"
)

// ClassifierInstructions is the system prompt of the classifier agent.
const ClassifierInstructions = `You are a dream analysis AI.
Classify the following dream and extract structured info:
- summary (one sentence)
- tags (type: ENTITY/ACTION/PLACE/EMOTION/ARCHETYPE/COLOR/SENSORY, value)
- sentiment (-1..1)
- valence (0..1)
- arousal (0..1)
- intensity (0..1)
- emotion (enum: JOY,SADNESS,FEAR,ANGER,SURPRISE,DISGUST,NEUTRAL,LOVE,ANXIETY,CALM)
Return JSON only.`

// AnalystInstructions is the system prompt of the analyst agent.
const AnalystInstructions = `You are an expert dream analyst with knowledge of psychology, symbolism, and dream interpretation.
Analyze the following dream and provide a comprehensive interpretation that includes:

1. **Overall Theme**: What is the main theme or message of the dream?
2. **Symbols and Their Meanings**: Identify key symbols and explain their potential meanings
3. **Emotional Landscape**: Analyze the emotional context and what it might represent
4. **Psychological Insights**: Provide insights into what the dream might reveal about the dreamer's subconscious
5. **Archetypal Elements**: Identify any Jungian archetypes or universal symbols
6. **Personal Reflection Prompts**: Suggest questions for the dreamer to reflect on

Be thoughtful, insightful, and empathetic in your analysis. Format your response in a clear, structured way using markdown.`

// Emotions accepted in Classification.Emotion.
var Emotions = []string{"JOY", "SADNESS", "FEAR", "ANGER", "SURPRISE", "DISGUST", "NEUTRAL", "LOVE", "ANXIETY", "CALM"}

// NewClassifierAgent returns the "Dream Classifier" agent.
func NewClassifierAgent(tools ...tool.Tool) *agent.Agent {
	return agent.New("Dream Classifier", func(o *agent.Options) {
		o.Instructions = ClassifierInstructions
		o.Tools = tools
	})
}

// NewAnalystAgent returns the "Dream Analyst" agent.
func NewAnalystAgent() *agent.Agent {
	return agent.New("Dream Analyst", func(o *agent.Options) {
		o.Instructions = AnalystInstructions
	})
}

// AnalysisPrompt renders r for the analyst agent.
func AnalysisPrompt(r Record) string {
	summary := r.Summary
	if summary == "" {
		summary = "Untitled"
	}
	emotion := r.Emotion
	if emotion == "" {
		emotion = "Unknown"
	}
	date := ""
	if !r.CreatedAt.IsZero() {
		date = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return strings.TrimSpace(fmt.Sprintf("Dream Summary: %s\nDream Content: %s\nEmotion: %s\nDate: %s\nTags: %s",
		summary, r.RawText, emotion, date, joinedTags(r)))
}

// Classification is the structured output of the classifier agent.
type Classification struct {
	Summary   string  `json:"summary"`
	Tags      []Tag   `json:"tags"`
	Sentiment float64 `json:"sentiment"`
	Valence   float64 `json:"valence"`
	Arousal   float64 `json:"arousal"`
	Intensity float64 `json:"intensity"`
	Emotion   string  `json:"emotion"`
}

// DefaultClassification is used when the model output cannot be parsed.
func DefaultClassification() Classification {
	return Classification{
		Tags:      []Tag{},
		Valence:   0.5,
		Arousal:   0.5,
		Intensity: 0.5,
	}
}

var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// StripCodeFence removes a surrounding markdown code fence.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// ParseClassification decodes model output. Fields missing from the output
// keep their defaults, scores are clamped to their ranges and an unknown
// emotion is dropped. Unparseable output returns the defaults and the
// decode error.
func ParseClassification(text string) (Classification, error) {
	c := DefaultClassification()
	if err := json.Unmarshal([]byte(StripCodeFence(text)), &c); err != nil {
		return DefaultClassification(), fmt.Errorf("dreams: parse classification: %w", err)
	}
	if c.Tags == nil {
		c.Tags = []Tag{}
	}
	c.Sentiment = clamp(c.Sentiment, -1, 1)
	c.Valence = clamp(c.Valence, 0, 1)
	c.Arousal = clamp(c.Arousal, 0, 1)
	c.Intensity = clamp(c.Intensity, 0, 1)
	c.Emotion = strings.ToUpper(strings.TrimSpace(c.Emotion))
	if !slices.Contains(Emotions, c.Emotion) {
		c.Emotion = ""
	}
	return c, nil
}

func clamp(v, lower, upper float64) float64 {
	switch {
	case v < lower:
		return lower
	case v > upper:
		return upper
	}
	return v
}
