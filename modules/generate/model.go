package generate

import (
	"fmt"

	"video-agent-server/modules/common/model"
)

// GenerateRequest - POST /api/generate body
type GenerateRequest struct {
	Prompt      string `json:"prompt"`
	Model       string `json:"model"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Duration    int    `json:"duration,omitempty"`
}

// Result - 생성 결과
type Result struct {
	Video   *model.Video `json:"video"`
	Message string       `json:"message"`
}

// ErrorResponse - error body for every non-2xx answer
type ErrorResponse struct {
	Error string `json:"error"`
}

// RequestError is a failure the client should see with its own status code.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}
