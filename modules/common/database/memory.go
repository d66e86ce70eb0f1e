package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"video-agent-server/modules/common/model"
)

// MemoryStore - process-local VideoStore
type MemoryStore struct {
	mu     sync.RWMutex
	videos map[string]model.Video
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		videos: make(map[string]model.Video),
		now:    time.Now,
	}
}

func (s *MemoryStore) CreateVideo(ctx context.Context, v model.NewVideo) (*model.Video, error) {
	video := model.Video{
		ID:          uuid.NewString(),
		Prompt:      v.Prompt,
		Model:       v.Model,
		Status:      v.Status,
		Duration:    model.IntPtr(v.Duration),
		AspectRatio: v.AspectRatio,
		CreatedAt:   s.now().UTC(),
	}

	s.mu.Lock()
	s.videos[video.ID] = video
	s.mu.Unlock()

	return &video, nil
}

func (s *MemoryStore) UpdateVideo(ctx context.Context, id string, u model.VideoUpdate) (*model.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[id]
	if !ok {
		return nil, ErrNotFound
	}

	video.Status = u.Status
	video.VideoURL = u.VideoURL
	video.ThumbnailURL = u.ThumbnailURL
	video.FalRequestID = u.FalRequestID
	video.ErrorMessage = u.ErrorMessage
	s.videos[id] = video

	return &video, nil
}

func (s *MemoryStore) ListVideos(ctx context.Context, limit int) ([]model.Video, error) {
	s.mu.RLock()
	videos := make([]model.Video, 0, len(s.videos))
	for _, v := range s.videos {
		videos = append(videos, v)
	}
	s.mu.RUnlock()

	sort.SliceStable(videos, func(i, j int) bool {
		if videos[i].CreatedAt.Equal(videos[j].CreatedAt) {
			return videos[i].ID > videos[j].ID
		}
		return videos[i].CreatedAt.After(videos[j].CreatedAt)
	})

	if limit > 0 && len(videos) > limit {
		videos = videos[:limit]
	}
	return videos, nil
}

func (s *MemoryStore) GetVideo(ctx context.Context, id string) (*model.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, ok := s.videos[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &video, nil
}
