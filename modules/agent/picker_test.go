package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"video-agent-server/modules/registry"
)

func TestPickBestModel(t *testing.T) {
	tests := []struct {
		want    registry.ModelID
		prompts []string
	}{
		{
			want: registry.Veo,
			prompts: []string{
				"una escena con música relajante",
				"un vídeo con musica de fondo",
				"una canción de cuna animada",
				"escena con audio ambiental",
				"paisaje con sonido de lluvia",
				"persona que habla a cámara",
				"un diálogo entre dos personas",
				"narración sobre el universo",
				"una voz en off explicando",
				"a video with background music",
				"someone singing a song",
				"a voice narrating the story",
			},
		},
		{
			want: registry.Sora,
			prompts: []string{
				"un plano cinematográfico de una ciudad",
				"escena cinematografica al atardecer",
				"un vídeo surrealista con formas",
				"contenido artístico y abstracto",
				"un sueño en el que vuelo",
				"mundo de fantasía con dragones",
				"una batalla épica medieval",
				"un momento dramático bajo la lluvia",
				"a cinematic shot of mountains",
				"surreal dreamlike landscape",
				"abstract artistic composition",
			},
		},
		{
			want: registry.Kling,
			prompts: []string{
				"un vídeo realista de una calle",
				"una persona caminando por el parque",
				"gente bailando en una fiesta",
				"movimiento de cámara alrededor de un coche",
				"escena de acción con explosiones",
				"un deporte extremo en la montaña",
				"realistic street scene at night",
				"a person walking through a market",
				"camera movement around a building",
			},
		},
		{
			// no keyword at all
			want: registry.Kling,
			prompts: []string{
				"un atardecer en la playa",
				"un gato jugando con una pelota",
				"flores abriéndose en primavera",
				"a sunset over the ocean",
				"",
			},
		},
	}

	for _, tt := range tests {
		for _, prompt := range tt.prompts {
			t.Run(prompt, func(t *testing.T) {
				assert.Equal(t, tt.want, PickBestModel(prompt))
			})
		}
	}
}

func TestPickBestModel_CaseInsensitive(t *testing.T) {
	assert.Equal(t, registry.Veo, PickBestModel("MÚSICA CLÁSICA"))
	assert.Equal(t, registry.Sora, PickBestModel("CINEMATOGRÁFICO"))
	assert.Equal(t, registry.Kling, PickBestModel("REALISTA"))
	assert.Equal(t, registry.Veo, PickBestModel("Canción De Amor"))
	assert.Equal(t, registry.Sora, PickBestModel("Surrealista Y Onírico"))
}

func TestPickBestModel_Priority(t *testing.T) {
	assert.Equal(t, registry.Veo, PickBestModel("escena cinematográfica con música"), "audio beats cinematic")
	assert.Equal(t, registry.Veo, PickBestModel("persona realista cantando"), "audio beats realistic")
	assert.Equal(t, registry.Sora, PickBestModel("escena realista pero cinematográfica"), "cinematic beats realistic")
}
