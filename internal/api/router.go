package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/rohanj-dev/skystash/docs"

	"github.com/rohanj-dev/skystash/internal/api/handlers"
	"github.com/rohanj-dev/skystash/internal/api/middleware"
	"github.com/rohanj-dev/skystash/internal/auth"
	"github.com/rohanj-dev/skystash/internal/config"
	"github.com/rohanj-dev/skystash/internal/models"
)

const (
	rateLimitMax    = 100
	rateLimitWindow = 15 * time.Minute
)

// SetupRouter wires every route. All /api routes except registration, login
// and the Google OAuth flow sit behind the auth middleware.
func SetupRouter(
	cfg *config.Config,
	tokens *auth.TokenService,
	authHandler *handlers.AuthHandler,
	fileHandler *handlers.FileHandler,
	dashboardHandler *handlers.DashboardHandler,
) http.Handler {
	mainMux := http.NewServeMux()
	c := cors.New(cfg.CorsConfig)
	limiter := middleware.NewRateLimiter(rateLimitMax, rateLimitWindow)

	// ---------- PUBLIC ROUTES ----------
	mainMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	mainMux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mainMux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mainMux.HandleFunc("GET /api/auth/google/login", authHandler.GoogleLogin)
	mainMux.HandleFunc("GET /api/auth/google/callback", authHandler.GoogleCallback)

	// ---------- PROTECTED ROUTES ----------
	protectedMux := http.NewServeMux()

	fileMux := http.NewServeMux()
	fileMux.HandleFunc("POST /upload", fileHandler.Upload)
	fileMux.HandleFunc("GET /images", fileHandler.ListByCategory(models.CategoryImage))
	fileMux.HandleFunc("GET /document", fileHandler.ListByCategory(models.CategoryDocument))
	fileMux.HandleFunc("GET /videos", fileHandler.ListByCategory(models.CategoryVideoOrAudio))
	fileMux.HandleFunc("GET /other", fileHandler.ListByCategory(models.CategoryOther))
	fileMux.HandleFunc("PATCH /{id}/rename", fileHandler.Rename)
	fileMux.HandleFunc("DELETE /{id}", fileHandler.Delete)
	fileMux.HandleFunc("GET /{id}/download", fileHandler.Download)

	protectedMux.Handle("/files/",
		http.StripPrefix("/files", fileMux),
	)
	protectedMux.HandleFunc("GET /dashboard", dashboardHandler.Summary)
	protectedMux.HandleFunc("GET /auth/get", authHandler.Profile)
	protectedMux.HandleFunc("POST /auth/logout", authHandler.Logout)

	// Exact public patterns above win over this prefix route.
	mainMux.Handle("/api/",
		http.StripPrefix(
			"/api",
			middleware.AuthMiddleware(tokens, protectedMux),
		),
	)

	handler := c.Handler(mainMux)
	handler = limiter.Middleware(handler)
	handler = middleware.Logger(handler)
	return handler
}
