package generate

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"video-agent-server/modules/common/database"
	"video-agent-server/modules/common/fal"
	"video-agent-server/modules/common/model"
	"video-agent-server/modules/gallery"
	"video-agent-server/modules/registry"
)

const (
	defaultAspectRatio = "16:9"
	noVideoURLMessage  = "No video URL in response"
)

// Backend - queue-based generation service
type Backend interface {
	Subscribe(ctx context.Context, modelID string, input map[string]interface{}) (*fal.Result, error)
}

// Notifier receives every row the service creates or reconciles.
type Notifier interface {
	Publish(eventType string, video *model.Video)
}

// Service - generation orchestrator
type Service struct {
	store    database.VideoStore
	backend  Backend
	notifier Notifier
}

// NewService - notifier may be nil
func NewService(store database.VideoStore, backend Backend, notifier Notifier) *Service {
	return &Service{
		store:    store,
		backend:  backend,
		notifier: notifier,
	}
}

// ValidateGenerateRequest - nil when the request can be processed
func ValidateGenerateRequest(req GenerateRequest) *RequestError {
	if req.Prompt == "" || req.Model == "" {
		return &RequestError{Status: http.StatusBadRequest, Message: "prompt and model are required"}
	}
	if _, ok := registry.Resolve(registry.ModelID(req.Model)); !ok {
		return &RequestError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Invalid model: %s. Available: %s", req.Model, registry.IDs()),
		}
	}
	return nil
}

// BuildFalInput - per-model input shape. Kling takes duration as a string,
// VEO takes none, Sora takes a number.
func BuildFalInput(prompt string, id registry.ModelID, aspectRatio string, duration int) map[string]interface{} {
	input := map[string]interface{}{"prompt": prompt}

	switch id {
	case registry.Kling:
		input["duration"] = strconv.Itoa(duration)
		input["aspect_ratio"] = aspectRatio
	case registry.Veo:
		input["aspect_ratio"] = aspectRatio
	case registry.Sora:
		input["duration"] = duration
		input["aspect_ratio"] = aspectRatio
	}

	return input
}

// ExtractVideoURL - video.url, then video_url, then output.video.url
func ExtractVideoURL(data map[string]interface{}) string {
	return firstString(data,
		[]string{"video", "url"},
		[]string{"video_url"},
		[]string{"output", "video", "url"},
	)
}

// ExtractThumbnailURL - video.thumbnail_url, then thumbnail_url
func ExtractThumbnailURL(data map[string]interface{}) string {
	return firstString(data,
		[]string{"video", "thumbnail_url"},
		[]string{"thumbnail_url"},
	)
}

// firstString - first path that resolves to a non-empty string
func firstString(data map[string]interface{}, paths ...[]string) string {
	for _, path := range paths {
		if s := lookupString(data, path); s != "" {
			return s
		}
	}
	return ""
}

func lookupString(data map[string]interface{}, path []string) string {
	var cur interface{} = data
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return ""
		}
		cur = m[key]
	}
	s, _ := cur.(string)
	return s
}

// GenerateVideo - validate, record, generate, reconcile.
// Client-facing failures are *RequestError; a backend failure is returned
// as is after the row has been marked failed.
func (s *Service) GenerateVideo(ctx context.Context, req GenerateRequest) (*Result, error) {
	if reqErr := ValidateGenerateRequest(req); reqErr != nil {
		return nil, reqErr
	}

	cfg, _ := registry.Resolve(registry.ModelID(req.Model))

	aspectRatio := req.AspectRatio
	if aspectRatio == "" {
		aspectRatio = defaultAspectRatio
	}
	duration := req.Duration
	if duration == 0 {
		duration = cfg.DefaultDuration
	}

	video, err := s.store.CreateVideo(ctx, model.NewVideo{
		Prompt:      req.Prompt,
		Model:       req.Model,
		Status:      model.StatusProcessing,
		AspectRatio: aspectRatio,
		Duration:    duration,
	})
	if err != nil {
		log.Printf("❌ [Generate] DB error: %v", err)
		return nil, &RequestError{Status: http.StatusInternalServerError, Message: "Failed to create video record"}
	}
	s.notify(gallery.EventVideoCreated, video)

	log.Printf("🎬 [Generate] Video %s: %s (%s, %ds)", video.ID, cfg.Name, aspectRatio, duration)

	input := BuildFalInput(req.Prompt, cfg.ID, aspectRatio, duration)
	res, err := s.backend.Subscribe(ctx, cfg.FalModel, input)
	if err != nil {
		log.Printf("❌ [Generate] Backend error for video %s: %v", video.ID, err)
		s.markFailed(ctx, video, err)
		return nil, err
	}

	videoURL := ExtractVideoURL(res.Data)
	thumbnailURL := ExtractThumbnailURL(res.Data)

	update := model.VideoUpdate{
		Status:       model.StatusCompleted,
		VideoURL:     model.StringPtr(videoURL),
		ThumbnailURL: model.StringPtr(thumbnailURL),
		FalRequestID: model.StringPtr(res.RequestID),
	}
	if videoURL == "" {
		update.Status = model.StatusFailed
		update.ErrorMessage = model.StringPtr(noVideoURLMessage)
	}

	final := video
	updated, err := s.store.UpdateVideo(ctx, video.ID, update)
	if err != nil {
		log.Printf("⚠️ [Generate] Update error for video %s: %v", video.ID, err)
	} else {
		final = updated
		s.notify(gallery.EventVideoUpdated, final)
	}

	if videoURL == "" {
		log.Printf("⚠️ [Generate] Video %s: no URL in backend response", video.ID)
		return &Result{Video: final, Message: "Video generation completed but no URL was returned."}, nil
	}

	log.Printf("✅ [Generate] Video %s completed: %s", video.ID, videoURL)
	return &Result{
		Video:   final,
		Message: fmt.Sprintf("Video generated successfully with %s!", cfg.Name),
	}, nil
}

// markFailed - best-effort so the row does not stay in processing
func (s *Service) markFailed(ctx context.Context, video *model.Video, cause error) {
	updated, err := s.store.UpdateVideo(context.WithoutCancel(ctx), video.ID, model.VideoUpdate{
		Status:       model.StatusFailed,
		ErrorMessage: model.StringPtr(cause.Error()),
	})
	if err != nil {
		log.Printf("⚠️ [Generate] Failed to mark video %s as failed: %v", video.ID, err)
		return
	}
	s.notify(gallery.EventVideoUpdated, updated)
}

func (s *Service) notify(eventType string, video *model.Video) {
	if s.notifier != nil {
		s.notifier.Publish(eventType, video)
	}
}
