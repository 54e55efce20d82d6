package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rohits-web03/inkwell/internal/repositories"
)

const coverURLTTL = 15 * time.Minute

// CoverLocator resolves stored covers held outside the local disk.
type CoverLocator interface {
	Exists(ctx context.Context, key string) (bool, error)
	URL(ctx context.Context, key string, expires time.Duration) (string, error)
}

func coverFile(r *http.Request) (string, bool) {
	name := r.PathValue("path")
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", false
	}
	return name, true
}

// DiskCovers serves covers from dir.
//
// @Summary Cover image
// @Tags Covers
// @Param path path string true "Cover file name"
// @Success 200
// @Success 307
// @Failure 404
// @Router /uploads/{path} [get]
func DiskCovers(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, ok := coverFile(r)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		http.ServeFile(w, r, filepath.Join(dir, name))
	})
}

// RemoteCovers redirects to a short-lived URL for covers held in object storage.
func RemoteCovers(store CoverLocator, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, ok := coverFile(r)
		if !ok {
			http.NotFound(w, r)
			return
		}
		key := repositories.CoverPrefix + name

		exists, err := store.Exists(r.Context(), key)
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to look up cover", slog.String("key", key), slog.Any("error", err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if !exists {
			http.NotFound(w, r)
			return
		}

		target, err := store.URL(r.Context(), key, coverURLTTL)
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to sign cover url", slog.String("key", key), slog.Any("error", err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
	})
}
