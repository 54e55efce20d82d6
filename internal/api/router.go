package api

import (
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/rohits-web03/inkwell/docs"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/rohits-web03/inkwell/internal/api/handlers"
	"github.com/rohits-web03/inkwell/internal/api/middleware"
	"github.com/rohits-web03/inkwell/internal/session"
	"github.com/rs/cors"
)

// Deps are the collaborators the router dispatches to.
type Deps struct {
	Auth   *handlers.AuthHandler
	Posts  *handlers.PostHandler
	Covers http.Handler
	Tokens *session.Service
	Cors   cors.Options
	Logger *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	mainMux := http.NewServeMux()
	c := cors.New(d.Cors)
	requireAuth := middleware.RequireAuth(d.Tokens, d.Logger)

	// ---------- PUBLIC ROUTES ----------
	mainMux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)
	mainMux.Handle("GET /uploads/{path...}", d.Covers)

	authMux := http.NewServeMux()
	authMux.HandleFunc("POST /register", d.Auth.Register)
	authMux.HandleFunc("POST /login", d.Auth.Login)
	authMux.HandleFunc("GET /profile", d.Auth.Profile)
	authMux.HandleFunc("POST /logout", d.Auth.Logout)
	authMux.HandleFunc("GET /google/login", d.Auth.GoogleLogin)
	authMux.HandleFunc("GET /google/callback", d.Auth.GoogleCallback)

	mainMux.Handle("/api/v1/auth/",
		http.StripPrefix("/api/v1/auth", authMux),
	)

	mainMux.HandleFunc("GET /api/v1/posts", d.Posts.List)
	mainMux.HandleFunc("GET /api/v1/posts/{id}", d.Posts.Get)

	// ---------- PROTECTED ROUTES ----------
	mainMux.Handle("POST /api/v1/posts/create", requireAuth(http.HandlerFunc(d.Posts.Create)))
	mainMux.Handle("PUT /api/v1/posts/{id}", requireAuth(http.HandlerFunc(d.Posts.Update)))
	mainMux.Handle("DELETE /api/v1/posts/{id}", requireAuth(http.HandlerFunc(d.Posts.Delete)))

	d.Logger.Debug("router initialized")
	handler := c.Handler(mainMux)
	handler = middleware.Recover(d.Logger)(handler)
	handler = middleware.Logger(d.Logger)(handler)
	return handler
}
