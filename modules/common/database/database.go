package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"video-agent-server/modules/common/model"
)

// ErrNotFound - no row with the requested id
var ErrNotFound = errors.New("video not found")

// VideoStore - persistence for generation jobs
type VideoStore interface {
	CreateVideo(ctx context.Context, v model.NewVideo) (*model.Video, error)
	UpdateVideo(ctx context.Context, id string, u model.VideoUpdate) (*model.Video, error)
	ListVideos(ctx context.Context, limit int) ([]model.Video, error)
	GetVideo(ctx context.Context, id string) (*model.Video, error)
}

var (
	_ VideoStore = (*SupabaseStore)(nil)
	_ VideoStore = (*MemoryStore)(nil)
)

// SupabaseStore - videos table over PostgREST
type SupabaseStore struct {
	supabase *supabase.Client
	table    string
}

// NewSupabaseStore - Database 클라이언트 생성
func NewSupabaseStore(url, key, table string) (*SupabaseStore, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}
	if table == "" {
		table = "videos"
	}

	log.Printf("✅ [Database] Supabase store ready (table: %s)", table)
	return &SupabaseStore{supabase: client, table: table}, nil
}

// CreateVideo - insert and return the stored row
func (s *SupabaseStore) CreateVideo(ctx context.Context, v model.NewVideo) (*model.Video, error) {
	data, _, err := s.supabase.From(s.table).
		Insert(v, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to insert video: %w", err)
	}

	video, err := firstVideo(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse insert response: %w", err)
	}

	log.Printf("✅ [Database] Video record created: %s (model: %s)", video.ID, video.Model)
	return video, nil
}

// UpdateVideo - Video 상태 업데이트
func (s *SupabaseStore) UpdateVideo(ctx context.Context, id string, u model.VideoUpdate) (*model.Video, error) {
	log.Printf("📝 [Database] Updating video %s status to: %s", id, u.Status)

	data, _, err := s.supabase.From(s.table).
		Update(u, "representation", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update video %s: %w", id, err)
	}

	video, err := firstVideo(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse update response: %w", err)
	}
	return video, nil
}

// ListVideos - newest first
func (s *SupabaseStore) ListVideos(ctx context.Context, limit int) ([]model.Video, error) {
	data, _, err := s.supabase.From(s.table).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}

	videos := []model.Video{}
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return videos, nil
}

// GetVideo - single row by id
func (s *SupabaseStore) GetVideo(ctx context.Context, id string) (*model.Video, error) {
	data, _, err := s.supabase.From(s.table).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		if isInvalidID(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query video %s: %w", id, err)
	}
	return firstVideo(data)
}

// invalidTextRepresentation - Postgres code for a value that does not parse
// as the column type, e.g. "abc" against a uuid id.
const invalidTextRepresentation = "22P02"

// isInvalidID - PostgREST reports the code inside the error text
func isInvalidID(err error) bool {
	return strings.Contains(err.Error(), invalidTextRepresentation)
}

// firstVideo - PostgREST always answers with an array
func firstVideo(data []byte) (*model.Video, error) {
	var videos []model.Video
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, ErrNotFound
	}
	return &videos[0], nil
}
