package model

import "time"

// Video - videos 테이블 구조 (one generation job)
type Video struct {
	ID           string    `json:"id"`
	Prompt       string    `json:"prompt"`
	Model        string    `json:"model"`
	Status       string    `json:"status"`
	VideoURL     *string   `json:"video_url"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	Duration     *int      `json:"duration"`
	AspectRatio  string    `json:"aspect_ratio"`
	ErrorMessage *string   `json:"error_message"`
	FalRequestID *string   `json:"fal_request_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewVideo - insert payload. The store assigns id and created_at.
type NewVideo struct {
	Prompt      string `json:"prompt"`
	Model       string `json:"model"`
	Status      string `json:"status"`
	AspectRatio string `json:"aspect_ratio"`
	Duration    int    `json:"duration"`
}

// VideoUpdate - the single reconciliation write after the backend resolves.
// Nil pointers are written as null.
type VideoUpdate struct {
	Status       string  `json:"status"`
	VideoURL     *string `json:"video_url"`
	ThumbnailURL *string `json:"thumbnail_url"`
	FalRequestID *string `json:"fal_request_id"`
	ErrorMessage *string `json:"error_message"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// StringPtr returns nil for "" so empty values are stored as null.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IntPtr - pointer helper for nullable integer columns
func IntPtr(i int) *int {
	return &i
}
