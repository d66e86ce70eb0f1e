package generate

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler - Generate HTTP Handler
type Handler struct {
	service *Service
	limit   mux.MiddlewareFunc
}

// NewHandler - limit guards the generate route; nil means no limit.
func NewHandler(service *Service, limit mux.MiddlewareFunc) *Handler {
	return &Handler{service: service, limit: limit}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	var generate http.Handler = http.HandlerFunc(h.HandleGenerate)
	if h.limit != nil {
		generate = h.limit(generate)
	}
	r.Handle("/api/generate", generate).Methods("POST", "OPTIONS")
	log.Println("✅ [Generate] Routes registered: POST /api/generate")
}

// HandleGenerate - POST /api/generate. Blocks until the backend resolves.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [Generate] Invalid request: %v", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	log.Printf("📥 [Generate] Request: model=%s, aspect=%s, duration=%d", req.Model, req.AspectRatio, req.Duration)

	// Generation outlives the client connection.
	result, err := h.service.GenerateVideo(context.WithoutCancel(r.Context()), req)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			writeJSON(w, reqErr.Status, ErrorResponse{Error: reqErr.Message})
			return
		}
		log.Printf("❌ [Generate] Generate error: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Video generation failed: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ [Generate] Failed to encode response: %v", err)
	}
}
