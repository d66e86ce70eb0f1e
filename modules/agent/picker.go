package agent

import (
	"strings"

	"video-agent-server/modules/registry"
)

// keywordSet maps a group of prompt keywords to the model that handles them best.
// Keywords are stems matched by substring so inflections still hit.
type keywordSet struct {
	model    registry.ModelID
	keywords []string
}

// Checked in order; the first set with a hit wins.
var modelKeywordSets = []keywordSet{
	{
		// VEO 3: native audio, music, dialogue
		model: registry.Veo,
		keywords: []string{
			"música", "musica", "canción", "cancion", "audio", "sonido", "habla",
			"diálogo", "dialogo", "canta", "narración", "narracion", "voz",
			"sound", "music", "voice", "sing",
		},
	},
	{
		// Sora 2: cinematic, artistic, dreamlike
		model: registry.Sora,
		keywords: []string{
			"cinematográfic", "cinematografic", "cinematic", "surrealista", "surreal",
			"artístic", "artistic", "abstract", "sueño", "dream", "fantasía",
			"fantasia", "fantasy", "épic", "epic", "dramátic", "dramatic",
		},
	},
	{
		// Kling 2.1: realism, camera work, people, action
		model: registry.Kling,
		keywords: []string{
			"realista", "realistic", "persona", "person", "gente", "people",
			"cámara", "camara", "camera", "acción", "accion", "action",
			"deporte", "sport", "movimiento", "movement",
		},
	},
}

// defaultModel is the most versatile backend.
const defaultModel = registry.Kling

// PickBestModel chooses a model for a prompt by keyword priority:
// audio, then cinematic, then realistic, then the default.
func PickBestModel(prompt string) registry.ModelID {
	lower := strings.ToLower(prompt)

	for _, set := range modelKeywordSets {
		if containsAny(lower, set.keywords) {
			return set.model
		}
	}
	return defaultModel
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
