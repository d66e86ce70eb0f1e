package registry

import "strings"

// ModelID identifies a supported generation backend.
type ModelID string

const (
	Kling ModelID = "kling"
	Veo   ModelID = "veo"
	Sora  ModelID = "sora"

	// Auto lets the agent pick the model from the prompt.
	Auto = "auto"
)

// ModelConfig - one generation backend and its constraints
type ModelConfig struct {
	ID              ModelID  `json:"id"`
	Name            string   `json:"name"`
	FalModel        string   `json:"falModel"`
	Description     string   `json:"description"`
	MaxDuration     int      `json:"maxDuration"`
	DefaultDuration int      `json:"defaultDuration"`
	AspectRatios    []string `json:"aspectRatios"`
}

// Display order.
var videoModels = []ModelConfig{
	{
		ID:              Kling,
		Name:            "Kling 2.1",
		FalModel:        "fal-ai/kling-video/v2.1/standard/text-to-video",
		Description:     "High quality video generation with precise camera movements",
		MaxDuration:     10,
		DefaultDuration: 5,
		AspectRatios:    []string{"16:9", "9:16", "1:1"},
	},
	{
		ID:              Veo,
		Name:            "VEO 3",
		FalModel:        "fal-ai/veo3",
		Description:     "Google's professional-grade video with native audio",
		MaxDuration:     8,
		DefaultDuration: 8,
		AspectRatios:    []string{"16:9", "9:16"},
	},
	{
		ID:              Sora,
		Name:            "Sora 2",
		FalModel:        "fal-ai/sora-2/text-to-video",
		Description:     "OpenAI's cinematic video model with rich detail",
		MaxDuration:     10,
		DefaultDuration: 5,
		AspectRatios:    []string{"16:9", "9:16", "1:1"},
	},
}

// List returns every model in display order. The slice is a copy.
func List() []ModelConfig {
	out := make([]ModelConfig, len(videoModels))
	copy(out, videoModels)
	return out
}

// Resolve looks a model up by id.
func Resolve(id ModelID) (ModelConfig, bool) {
	for _, m := range videoModels {
		if m.ID == id {
			return m, true
		}
	}
	return ModelConfig{}, false
}

// IDs returns the model ids joined for error messages, e.g. "kling, veo, sora".
func IDs() string {
	ids := make([]string, 0, len(videoModels))
	for _, m := range videoModels {
		ids = append(ids, string(m.ID))
	}
	return strings.Join(ids, ", ")
}
