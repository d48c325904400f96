package artifact

import "time"

// Step names, in pipeline order.
const (
	StepBackground = "background"
	StepFloating1  = "floating1"
	StepFloating2  = "floating2"
	StepVideo      = "video"
	StepMusic      = "music"
)

// Manifest describes one generation run. Every path is a root-relative
// public path, or "" when neither generation nor fallback produced one.
type Manifest struct {
	Description string    `json:"description"`
	Images      [3]string `json:"images"` // background, floating #1, floating #2
	Video       string    `json:"video"`
	Music       string    `json:"music"`
	GeneratedAt time.Time `json:"generatedAt"`
	// Recovered lists the steps whose path came from the fallback lookup.
	Recovered []string `json:"recovered,omitempty"`
}

// Assets is the persisted snapshot of a manifest's paths. Empty fields are
// omitted.
type Assets struct {
	Background string `json:"background,omitempty"`
	Floating1  string `json:"floating1,omitempty"`
	Floating2  string `json:"floating2,omitempty"`
	Video      string `json:"video,omitempty"`
	Music      string `json:"music,omitempty"`
}

// Assets returns the manifest's path snapshot.
func (m *Manifest) Assets() Assets {
	return Assets{
		Background: m.Images[0],
		Floating1:  m.Images[1],
		Floating2:  m.Images[2],
		Video:      m.Video,
		Music:      m.Music,
	}
}

// Paths returns the non-empty paths of the snapshot.
func (a Assets) Paths() []string {
	var out []string
	for _, p := range []string{a.Background, a.Floating1, a.Floating2, a.Video, a.Music} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Manifest rebuilds a manifest from the snapshot.
func (a Assets) Manifest(description string, generatedAt time.Time) *Manifest {
	return &Manifest{
		Description: description,
		Images:      [3]string{a.Background, a.Floating1, a.Floating2},
		Video:       a.Video,
		Music:       a.Music,
		GeneratedAt: generatedAt,
	}
}

// WasRecovered reports whether step's path came from a fallback.
func (m *Manifest) WasRecovered(step string) bool {
	for _, s := range m.Recovered {
		if s == step {
			return true
		}
	}
	return false
}
