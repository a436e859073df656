package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/alvifsandana/qms-be/internal/api/handlers"
	"github.com/alvifsandana/qms-be/internal/auth"
	"github.com/alvifsandana/qms-be/internal/config"
	"github.com/alvifsandana/qms-be/internal/services"
	"github.com/alvifsandana/qms-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	cfg *config.Config,
	hub *websocket.Hub,
	userSvc services.UserServiceProvider,
	sessionSvc services.SessionServiceProvider,
	eventSvc services.EventServiceProvider,
	ncrSvc services.NCRServiceProvider,
	attachmentSvc services.AttachmentServiceProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// The route guard runs before any page or API handling.
	r.Use(auth.Guard(sessionSvc, cfg.DefaultLanding))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userSvc, sessionSvc, eventSvc, cfg.AppEnv)
	userHandler := handlers.NewUserHandler(userSvc)
	ncrHandler := handlers.NewNCRHandler(ncrSvc)
	attachmentHandler := handlers.NewAttachmentHandler(attachmentSvc, eventSvc)
	eventHandler := handlers.NewEventHandler(eventSvc)
	wsHandler := handlers.NewWebSocketHandler(hub)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// Everything below requires an active session.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(sessionSvc))

			r.Get("/auth/me", authHandler.Me)

			r.Get("/ws/events", wsHandler.Serve)
			r.Get("/events", eventHandler.GetRecent)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.GetAll)
				r.Post("/", userHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", userHandler.Get)
					r.Put("/", userHandler.Update)
					r.Delete("/", userHandler.Delete)
					r.Post("/password", userHandler.ChangePassword)
				})
			})

			r.Route("/ncr", func(r chi.Router) {
				r.Get("/", ncrHandler.GetAll)
				r.Post("/", ncrHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", ncrHandler.Get)
					r.Delete("/", ncrHandler.Delete)
					r.Put("/attachment", ncrHandler.SetAttachment)
				})
			})

			r.Route("/attachments", func(r chi.Router) {
				r.Post("/", attachmentHandler.UploadLocal)
				r.Post("/remote", attachmentHandler.UploadRemote)
				r.Delete("/", attachmentHandler.Delete)
			})
		})
	})

	// Uploaded attachments are served straight from disk.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	// Everything else is the page layer: static assets with an index
	// fallback for navigation paths.
	r.Get("/*", pageHandler(cfg.PublicDir))

	return r
}

// pageHandler serves files from the public directory and falls back to
// index.html for navigation paths handled client-side.
func pageHandler(publicDir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(publicDir))
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(publicDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(publicDir, "index.html"))
	}
}
