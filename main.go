package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"video-agent-server/modules/agent"
	"video-agent-server/modules/common/config"
	"video-agent-server/modules/common/database"
	"video-agent-server/modules/common/fal"
	"video-agent-server/modules/common/ratelimit"
	redisClient "video-agent-server/modules/common/redis"
	"video-agent-server/modules/gallery"
	"video-agent-server/modules/generate"
	"video-agent-server/modules/videos"
)

// server - everything the router needs
type server struct {
	cfg     *config.Config
	store   database.VideoStore
	backend generate.Backend
	limiter ratelimit.Limiter
	hub     *gallery.Hub
}

// CORS 헤더 추가
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "video-agent-server",
	})
}

func (s *server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")

	chatLimit := ratelimit.Middleware(s.limiter, ratelimit.Policy{
		Scope:       "chat",
		MaxRequests: s.cfg.ChatRateLimit,
		Window:      s.cfg.RateLimitWindow,
	})
	generateLimit := ratelimit.Middleware(s.limiter, ratelimit.Policy{
		Scope:       "generate",
		MaxRequests: s.cfg.GenerateRateLimit,
		Window:      s.cfg.RateLimitWindow,
	})

	agent.NewHandler(chatLimit).RegisterRoutes(r)
	generate.NewHandler(generate.NewService(s.store, s.backend, s.hub), generateLimit).RegisterRoutes(r)
	videos.NewHandler(s.store, s.cfg.VideosListLimit).RegisterRoutes(r)
	s.hub.RegisterRoutes(r)

	return r
}

func newStore(cfg *config.Config) (database.VideoStore, error) {
	if cfg.StoreBackend == config.StoreMemory {
		log.Println("⚠️  Using in-memory video store (data is lost on restart)")
		return database.NewMemoryStore(), nil
	}
	return database.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.VideosTable)
}

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to create video store: %v", err)
	}

	backend := fal.NewClient(cfg.FalKey, fal.Options{
		BaseURL:      cfg.FalQueueURL,
		PollInterval: cfg.FalPollInterval,
		Timeout:      cfg.FalTimeout,
	})

	var limiter ratelimit.Limiter
	var stopLimiter func()
	switch cfg.RateLimitBackend {
	case config.LimiterRedis:
		rdb, err := redisClient.Connect(context.Background(), cfg)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		limiter = ratelimit.NewRedisLimiter(rdb, "")
		stopLimiter = func() { rdb.Close() }
	default:
		memLimiter := ratelimit.NewMemoryLimiter(cfg.RateLimitSweepInterval)
		memLimiter.Start()
		limiter = memLimiter
		stopLimiter = memLimiter.Stop
	}

	hub := gallery.NewHub()

	srv := &server{cfg: cfg, store: store, backend: backend, limiter: limiter, hub: hub}
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Video Agent Server starting on port %s", cfg.Port)
		log.Printf("📡 Gallery feed: ws://localhost:%s/ws", cfg.Port)
		log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)
		log.Printf("📊 Metrics: http://localhost:%s/metrics", cfg.Port)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Close()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Server shutdown error: %v", err)
	}
	stopLimiter()

	log.Println("✅ Server stopped")
}
