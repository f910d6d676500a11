package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"lessonpath-backend-go/internal/config"
	"lessonpath-backend-go/internal/services"
	"lessonpath-backend-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type Server struct {
	Store      store.Store
	Config     config.Config
	Tokens     services.TokenService
	Identity   *services.IdentityService
	Allowlist  *services.AllowlistService
	Catalog    *services.CatalogService
	Ledger     *services.LedgerService
	Settings   *services.SettingsService
	Media      services.MediaService
	MetricsHub *services.MetricsHub
	Logger     *slog.Logger
}

func NewServer(st store.Store, cfg config.Config, hub *services.MetricsHub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
	}
	settings := services.NewSettingsService(st, cfg.DefaultUnlockThreshold)
	return &Server{
		Store:      st,
		Config:     cfg,
		Tokens:     tokens,
		Identity:   services.NewIdentityService(st, tokens),
		Allowlist:  services.NewAllowlistService(st),
		Catalog:    services.NewCatalogService(st),
		Ledger:     services.NewLedgerService(st, settings),
		Settings:   settings,
		Media:      services.MediaService{BasePath: cfg.MediaStoragePath},
		MetricsHub: hub,
		Logger:     logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(s.Logger))
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	authLimit := RateLimitConfig{
		RequestsPerWindow: s.Config.AuthRateLimitRequests,
		Window:            time.Duration(s.Config.AuthRateLimitWindowSeconds) * time.Second,
		TrustProxy:        s.Config.AuthRateLimitTrustProxy,
	}

	r.Get("/healthz", s.Healthz)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.Group(func(public chi.Router) {
				public.Use(RateLimitByIP(authLimit))
				public.Post("/register", s.Register)
				public.Post("/login", s.Login)
				public.Post("/refresh", s.Refresh)
			})
			auth.Group(func(user chi.Router) {
				user.Use(WithAuth(s.Tokens))
				user.Get("/me", s.Me)
				user.Post("/change-password", s.ChangePassword)
			})
		})

		api.Route("/users", func(users chi.Router) {
			users.Use(WithAuth(s.Tokens))
			users.Get("/{userId}", s.GetUser)
			users.Group(func(admin chi.Router) {
				admin.Use(RequireAdmin)
				admin.Get("/", s.ListUsers)
				admin.Delete("/{userId}", s.DeleteUser)
				admin.Get("/allowlist", s.ListAllowlist)
				admin.Post("/allowlist", s.UploadAllowlist)
			})
		})

		api.Route("/lessons", func(lessons chi.Router) {
			lessons.Get("/", s.ListLessons)
			lessons.Get("/{lessonId}", s.GetLesson)
			lessons.Group(func(user chi.Router) {
				user.Use(WithAuth(s.Tokens))
				user.Get("/access", s.LessonsAccess)
				user.Get("/{lessonId}/access", s.LessonAccess)
			})
			lessons.Group(func(admin chi.Router) {
				admin.Use(WithAuth(s.Tokens))
				admin.Use(RequireAdmin)
				admin.Post("/", s.CreateLesson)
				admin.Put("/reorder", s.ReorderLessons)
				admin.Put("/{lessonId}", s.UpdateLesson)
				admin.Delete("/{lessonId}", s.DeleteLesson)
			})
		})

		api.Route("/progress", func(progress chi.Router) {
			progress.Use(WithAuth(s.Tokens))
			progress.Get("/", s.GetProgress)
			progress.Post("/time", s.RecordTime)
			progress.With(RequireAdmin).Get("/stats", s.LessonStats)
		})

		api.Route("/settings", func(settings chi.Router) {
			settings.Use(WithAuth(s.Tokens))
			settings.Get("/unlock-threshold", s.GetUnlockThreshold)
			settings.With(RequireAdmin).Put("/unlock-threshold", s.SetUnlockThreshold)
		})

		api.Route("/media", func(media chi.Router) {
			media.Get("/{assetId}", s.MediaContent)
			media.Group(func(admin chi.Router) {
				admin.Use(WithAuth(s.Tokens))
				admin.Use(RequireAdmin)
				admin.Post("/images", s.UploadLessonImage)
				admin.Delete("/{assetId}", s.DeleteMediaAsset)
			})
		})

		api.With(WithAuth(s.Tokens), RequireAdmin).Get("/admin/metrics", s.MetricsHistory)
	})

	r.Get("/ws/metrics", s.MetricsSocket)
	return r
}
