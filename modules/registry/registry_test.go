package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListOrder(t *testing.T) {
	models := List()
	require.Len(t, models, 3)
	assert.Equal(t, Kling, models[0].ID)
	assert.Equal(t, Veo, models[1].ID)
	assert.Equal(t, Sora, models[2].ID)
}

func TestListIsACopy(t *testing.T) {
	models := List()
	models[0].Name = "changed"

	m, ok := Resolve(Kling)
	require.True(t, ok)
	assert.Equal(t, "Kling 2.1", m.Name)
}

func TestModelInvariants(t *testing.T) {
	seen := map[ModelID]bool{}
	for _, m := range List() {
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
		assert.LessOrEqual(t, m.DefaultDuration, m.MaxDuration, m.ID)
		assert.NotEmpty(t, m.FalModel)
		assert.NotEmpty(t, m.AspectRatios)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		id       ModelID
		wantOK   bool
		wantName string
		wantDur  int
	}{
		{Kling, true, "Kling 2.1", 5},
		{Veo, true, "VEO 3", 8},
		{Sora, true, "Sora 2", 5},
		{"invalid", false, "", 0},
		{"", false, "", 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			m, ok := Resolve(tt.id)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, m.Name)
			assert.Equal(t, tt.wantDur, m.DefaultDuration)
		})
	}
}

func TestIDs(t *testing.T) {
	assert.Equal(t, "kling, veo, sora", IDs())
}
