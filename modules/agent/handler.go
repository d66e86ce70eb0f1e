package agent

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler - chat endpoint
type Handler struct {
	limit mux.MiddlewareFunc
}

// NewHandler - limit guards the chat route; nil means no limit.
func NewHandler(limit mux.MiddlewareFunc) *Handler {
	return &Handler{limit: limit}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	var chat http.Handler = http.HandlerFunc(h.HandleChat)
	if h.limit != nil {
		chat = h.limit(chat)
	}
	r.Handle("/api/chat", chat).Methods("POST", "OPTIONS")
	log.Println("✅ [Agent] Routes registered: POST /api/chat")
}

// HandleChat - POST /api/chat
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [Agent] Invalid request: %v", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "message is required"})
		return
	}

	resp := ParseUserIntent(req.Message, req.Model)
	if resp.Directive != nil {
		log.Printf("📥 [Agent] Generation intent: model=%s, aspect=%s", resp.Model, resp.AspectRatio)
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ [Agent] Failed to encode response: %v", err)
	}
}
