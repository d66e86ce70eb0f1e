package agent

import "video-agent-server/modules/registry"

// ActionGenerate marks a response that carries a generation directive.
const ActionGenerate = "generate"

// ChatRequest - POST /api/chat body
type ChatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"` // model id or "auto"
}

// AgentResponse - reply for one chat turn. Directive is nil unless the
// caller should go on and generate; its fields are flattened into the JSON.
type AgentResponse struct {
	Message string `json:"message"`
	*Directive
}

// Directive - what to send to the generation endpoint
type Directive struct {
	Action      string           `json:"action"`
	Model       registry.ModelID `json:"model"`
	Prompt      string           `json:"prompt"`
	AspectRatio string           `json:"aspect_ratio"`
	Duration    int              `json:"duration"`
}

// ErrorResponse - JSON error body
type ErrorResponse struct {
	Error string `json:"error"`
}
