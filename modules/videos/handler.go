package videos

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"video-agent-server/modules/common/database"
	"video-agent-server/modules/common/model"
)

// ListResponse - GET /api/videos
type ListResponse struct {
	Videos []model.Video `json:"videos"`
}

// VideoResponse - GET /api/videos/{id}
type VideoResponse struct {
	Video *model.Video `json:"video"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler - gallery listing
type Handler struct {
	store database.VideoStore
	limit int
}

// NewHandler - limit is the page size for the listing
func NewHandler(store database.VideoStore, limit int) *Handler {
	if limit <= 0 {
		limit = 50
	}
	return &Handler{store: store, limit: limit}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/videos", h.HandleList).Methods("GET")
	r.HandleFunc("/api/videos/{id}", h.HandleGet).Methods("GET")
	log.Println("✅ [Videos] Routes registered: GET /api/videos, GET /api/videos/{id}")
}

// HandleList - newest first
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	videos, err := h.store.ListVideos(r.Context(), h.limit)
	if err != nil {
		log.Printf("❌ [Videos] Fetch videos error: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch videos"})
		return
	}
	if videos == nil {
		videos = []model.Video{}
	}

	writeJSON(w, http.StatusOK, ListResponse{Videos: videos})
}

// HandleGet - single video for refreshing one gallery card
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	video, err := h.store.GetVideo(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Video not found"})
		return
	}
	if err != nil {
		log.Printf("❌ [Videos] Fetch video %s error: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch video"})
		return
	}

	writeJSON(w, http.StatusOK, VideoResponse{Video: video})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ [Videos] Failed to encode response: %v", err)
	}
}
