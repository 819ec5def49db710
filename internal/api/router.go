package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/flowhq/flow-backend/internal/api/handlers"
	"github.com/flowhq/flow-backend/internal/api/middleware"
	"github.com/flowhq/flow-backend/internal/assemblyai"
	"github.com/flowhq/flow-backend/internal/config"
	"github.com/flowhq/flow-backend/internal/youtube"
)

type Router struct {
	mux        *chi.Mux
	cfg        *config.Config
	downloader *youtube.Downloader
	client     *assemblyai.Client
}

func NewRouter(cfg *config.Config) *Router {
	return &Router{
		mux: chi.NewRouter(),
		cfg: cfg,
		downloader: youtube.NewDownloader(youtube.DownloaderConfig{
			BinPath: cfg.Downloader.BinPath,
			TempDir: cfg.Downloader.TempDir,
		}),
		client: assemblyai.NewClient(assemblyai.Config{
			APIKey:  cfg.AssemblyAI.APIKey,
			BaseURL: cfg.AssemblyAI.BaseURL,
		}),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)

	// All origins allowed; this service fronts a development UI.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         3600,
	}))

	rl := middleware.NewRateLimiter(rt.cfg.RateLimit.RPS, rt.cfg.RateLimit.Burst)
	r.Use(rl.Limit)

	health := handlers.NewHealthHandler()
	r.Get("/", health.Index)
	r.Get("/api/health", health.Health)

	transcribe := handlers.NewTranscribeHandler(rt.downloader, rt.client)
	r.Post("/api/transcribe-youtube", transcribe.Transcribe)

	return r
}
