package generate

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-agent-server/modules/common/database"
	"video-agent-server/modules/common/fal"
	"video-agent-server/modules/common/model"
	"video-agent-server/modules/gallery"
	"video-agent-server/modules/registry"
)

// stubBackend records the last call and answers with a canned result
type stubBackend struct {
	mu      sync.Mutex
	data    map[string]interface{}
	err     error
	calls   int
	modelID string
	input   map[string]interface{}
}

func (b *stubBackend) Subscribe(ctx context.Context, modelID string, input map[string]interface{}) (*fal.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.modelID = modelID
	b.input = input
	if b.err != nil {
		return nil, b.err
	}
	return &fal.Result{Data: b.data, RequestID: "req-123"}, nil
}

func withVideoURL(url string) *stubBackend {
	return &stubBackend{data: map[string]interface{}{"video": map[string]interface{}{"url": url}}}
}

// failingStore wraps a MemoryStore and fails the selected operations
type failingStore struct {
	*database.MemoryStore
	failCreate bool
	failUpdate bool
}

func (s *failingStore) CreateVideo(ctx context.Context, v model.NewVideo) (*model.Video, error) {
	if s.failCreate {
		return nil, errors.New("db error")
	}
	return s.MemoryStore.CreateVideo(ctx, v)
}

func (s *failingStore) UpdateVideo(ctx context.Context, id string, u model.VideoUpdate) (*model.Video, error) {
	if s.failUpdate {
		return nil, errors.New("update error")
	}
	return s.MemoryStore.UpdateVideo(ctx, id, u)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []gallery.Event
}

func (n *recordingNotifier) Publish(eventType string, video *model.Video) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, gallery.Event{Type: eventType, Video: video})
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

func TestValidateGenerateRequest(t *testing.T) {
	tests := []struct {
		name string
		req  GenerateRequest
		want string
	}{
		{"missingPrompt", GenerateRequest{Model: "kling"}, "prompt and model are required"},
		{"missingModel", GenerateRequest{Prompt: "test"}, "prompt and model are required"},
		{"unknownModel", GenerateRequest{Prompt: "test", Model: "invalid"}, "Invalid model: invalid. Available: kling, veo, sora"},
		{"kling", GenerateRequest{Prompt: "test", Model: "kling"}, ""},
		{"veo", GenerateRequest{Prompt: "test", Model: "veo"}, ""},
		{"sora", GenerateRequest{Prompt: "test", Model: "sora"}, ""},
		{"aspectNotChecked", GenerateRequest{Prompt: "test", Model: "veo", AspectRatio: "1:1"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGenerateRequest(tt.req)
			if tt.want == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, http.StatusBadRequest, err.Status)
			assert.Equal(t, tt.want, err.Message)
		})
	}
}

func TestBuildFalInput(t *testing.T) {
	assert.Equal(t,
		map[string]interface{}{"prompt": "a cat", "duration": "5", "aspect_ratio": "16:9"},
		BuildFalInput("a cat", registry.Kling, "16:9", 5))

	assert.Equal(t,
		map[string]interface{}{"prompt": "a cat", "aspect_ratio": "9:16"},
		BuildFalInput("a cat", registry.Veo, "9:16", 8))

	assert.Equal(t,
		map[string]interface{}{"prompt": "a cat", "duration": 5, "aspect_ratio": "1:1"},
		BuildFalInput("a cat", registry.Sora, "1:1", 5))
}

func TestExtractVideoURL(t *testing.T) {
	tests := []struct {
		name string
		data map[string]interface{}
		want string
	}{
		{"videoURL", map[string]interface{}{"video": map[string]interface{}{"url": "https://example.com/a.mp4"}}, "https://example.com/a.mp4"},
		{"flatVideoURL", map[string]interface{}{"video_url": "https://example.com/b.mp4"}, "https://example.com/b.mp4"},
		{"outputVideoURL", map[string]interface{}{"output": map[string]interface{}{"video": map[string]interface{}{"url": "https://example.com/c.mp4"}}}, "https://example.com/c.mp4"},
		{"firstWins", map[string]interface{}{
			"video":     map[string]interface{}{"url": "https://example.com/a.mp4"},
			"video_url": "https://example.com/b.mp4",
		}, "https://example.com/a.mp4"},
		{"emptySkipped", map[string]interface{}{
			"video":     map[string]interface{}{"url": ""},
			"video_url": "https://example.com/b.mp4",
		}, "https://example.com/b.mp4"},
		{"nonStringSkipped", map[string]interface{}{
			"video":  map[string]interface{}{"url": 42},
			"output": map[string]interface{}{"video": map[string]interface{}{"url": "https://example.com/c.mp4"}},
		}, "https://example.com/c.mp4"},
		{"videoIsString", map[string]interface{}{"video": "https://example.com/x.mp4"}, ""},
		{"empty", map[string]interface{}{}, ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVideoURL(tt.data))
		})
	}
}

func TestExtractThumbnailURL(t *testing.T) {
	assert.Equal(t, "https://example.com/t.jpg",
		ExtractThumbnailURL(map[string]interface{}{"video": map[string]interface{}{"thumbnail_url": "https://example.com/t.jpg"}}))
	assert.Equal(t, "https://example.com/t2.jpg",
		ExtractThumbnailURL(map[string]interface{}{"thumbnail_url": "https://example.com/t2.jpg"}))
	assert.Equal(t, "", ExtractThumbnailURL(map[string]interface{}{}))
	assert.Equal(t, "", ExtractThumbnailURL(nil))
}

func TestGenerateVideo_Success(t *testing.T) {
	store := database.NewMemoryStore()
	backend := withVideoURL("https://fal.media/v.mp4")
	notifier := &recordingNotifier{}
	svc := NewService(store, backend, notifier)

	res, err := svc.GenerateVideo(context.Background(), GenerateRequest{Prompt: "a cat", Model: "kling"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, res.Video.Status)
	assert.Contains(t, res.Message, "Kling 2.1")
	assert.Equal(t, "Video generated successfully with Kling 2.1!", res.Message)
	require.NotNil(t, res.Video.VideoURL)
	assert.Equal(t, "https://fal.media/v.mp4", *res.Video.VideoURL)
	require.NotNil(t, res.Video.FalRequestID)
	assert.Equal(t, "req-123", *res.Video.FalRequestID)
	assert.Nil(t, res.Video.ErrorMessage)
	assert.Nil(t, res.Video.ThumbnailURL)

	assert.Equal(t, "fal-ai/kling-video/v2.1/standard/text-to-video", backend.modelID)
	assert.Equal(t, map[string]interface{}{"prompt": "a cat", "duration": "5", "aspect_ratio": "16:9"}, backend.input)

	stored, err := store.GetVideo(context.Background(), res.Video.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	assert.Equal(t, 5, *stored.Duration)
	assert.Equal(t, "16:9", stored.AspectRatio)

	assert.Equal(t, []string{gallery.EventVideoCreated, gallery.EventVideoUpdated}, notifier.types())
}

func TestGenerateVideo_CustomAspectAndDuration(t *testing.T) {
	backend := withVideoURL("https://fal.media/v.mp4")
	svc := NewService(database.NewMemoryStore(), backend, nil)

	_, err := svc.GenerateVideo(context.Background(), GenerateRequest{Prompt: "a cat", Model: "sora", AspectRatio: "9:16"})
	require.NoError(t, err)
	assert.Equal(t, "fal-ai/sora-2/text-to-video", backend.modelID)
	assert.Equal(t, map[string]interface{}{"prompt": "a cat", "duration": 5, "aspect_ratio": "9:16"}, backend.input)

	_, err = svc.GenerateVideo(context.Background(), GenerateRequest{Prompt: "a cat", Model: "kling", Duration: 10})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"prompt": "a cat", "duration": "10", "aspect_ratio": "16:9"}, backend.input)

	_, err = svc.GenerateVideo(context.Background(), GenerateRequest{Prompt: "a cat", Model: "veo"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"prompt": "a cat", "aspect_ratio": "16:9"}, backend.input)
}

func TestGenerateVideo_NoURL(t *testing.T) {
	store := database.NewMemoryStore()
	svc := NewService(store, &stubBackend{data: map[string]interface{}{}}, nil)

	res, err := svc.GenerateVideo(context.Background(), GenerateRequest{Prompt: "a cat", Model: "kling"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusFailed, res.Video.Status)
	require.NotNil(t, res.Video.ErrorMessage)
	assert.Equal(t, "No video URL in response", *res.Video.ErrorMessage)
	assert.Nil(t, res.Video.VideoURL)
	assert.Contains(t, res.Message, "no URL")
}

func TestGenerateVideo_ValidationSkipsWork(t *testing.T) {
	store := database.NewMemoryStore()
	backend := withVideoURL("https://fal.media/v.mp4")
	svc := NewService(store, backend, nil)

	for _, req := range []GenerateRequest{
		{Model: "kling"},
		{Prompt: "test", Model: "invalid"},
	} {
		_, err := svc.GenerateVideo(context.Background(), req)
		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, http.StatusBadRequest, reqErr.Status)
	}

	assert.Zero(t, backend.calls)
	videos, _ := store.ListVideos(context.Background(), 50)
	assert.Empty(t, videos)
}

func TestGenerateVideo_InsertFails(t *testing.T) {
	backend := withVideoURL("https://fal.media/v.mp4")
	svc := NewService(&failingStore{MemoryStore: database.NewMemoryStore(), failCreate: true}, backend, nil)

	_, err := svc.GenerateVideo(context.Background(), GenerateRequest{Prompt: "a cat", Model: "kling"})

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusInternalServerError, reqErr.Status)
	assert.Equal(t, "Failed to create video record", reqErr.Message)
	assert.Zero(t, backend.calls)
}

func TestGenerateVideo_UpdateFailsReturnsOriginalRow(t *testing.T) {
	notifier := &recordingNotifier{}
	store := &failingStore{MemoryStore: database.NewMemoryStore(), failUpdate: true}
	svc := NewService(store, withVideoURL("https://fal.media/v.mp4"), notifier)

	res, err := svc.GenerateVideo(context.Background(), GenerateRequest{Prompt: "a cat", Model: "kling"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusProcessing, res.Video.Status)
	assert.Nil(t, res.Video.VideoURL)
	assert.Contains(t, res.Message, "Kling 2.1")
	assert.Equal(t, []string{gallery.EventVideoCreated}, notifier.types())
}

func TestGenerateVideo_BackendFailureMarksRowFailed(t *testing.T) {
	store := database.NewMemoryStore()
	notifier := &recordingNotifier{}
	svc := NewService(store, &stubBackend{err: errors.New("quota exceeded")}, notifier)

	_, err := svc.GenerateVideo(context.Background(), GenerateRequest{Prompt: "a cat", Model: "veo"})
	require.Error(t, err)
	assert.Equal(t, "quota exceeded", err.Error())

	videos, err := store.ListVideos(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, model.StatusFailed, videos[0].Status)
	require.NotNil(t, videos[0].ErrorMessage)
	assert.Equal(t, "quota exceeded", *videos[0].ErrorMessage)

	assert.Equal(t, []string{gallery.EventVideoCreated, gallery.EventVideoUpdated}, notifier.types())
}

func TestGenerateVideo_BackendFailureAndUpdateFailure(t *testing.T) {
	store := &failingStore{MemoryStore: database.NewMemoryStore(), failUpdate: true}
	svc := NewService(store, &stubBackend{err: errors.New("boom")}, nil)

	_, err := svc.GenerateVideo(context.Background(), GenerateRequest{Prompt: "a cat", Model: "kling"})
	require.EqualError(t, err, "boom")

	videos, _ := store.ListVideos(context.Background(), 50)
	require.Len(t, videos, 1)
	assert.Equal(t, model.StatusProcessing, videos[0].Status)
}
