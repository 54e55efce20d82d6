package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rohits-web03/inkwell/internal/api/middleware"
	"github.com/rohits-web03/inkwell/internal/api/services"
	"github.com/rohits-web03/inkwell/internal/config"
	"github.com/rohits-web03/inkwell/internal/media"
	"github.com/rohits-web03/inkwell/internal/utils"
)

// multipart parts above this size spill to temporary files
const formMemory = 8 << 20

type PostHandler struct {
	posts     *services.PostService
	maxUpload int64
	logger    *slog.Logger
}

func NewPostHandler(posts *services.PostService, cfg config.Config, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		posts:     posts,
		maxUpload: cfg.MaxUploadBytes,
		logger:    logger,
	}
}

// readPostForm parses the multipart body of a create or update request.
// The returned cleanup closes the cover and removes spilled form files.
func (h *PostHandler) readPostForm(w http.ResponseWriter, r *http.Request) (services.PostInput, func(), error) {
	noop := func() {}
	if r.ContentLength > h.maxUpload {
		return services.PostInput{}, noop, errBodyTooLarge
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.PostInput{}, noop, errBodyTooLarge
		}
		return services.PostInput{}, noop, &services.ValidationError{Field: "form", Reason: "is not valid multipart data"}
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	input := services.PostInput{
		Title:   r.FormValue("title"),
		Summary: r.FormValue("summary"),
		Content: r.FormValue("content"),
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		cleanup()
		return services.PostInput{}, noop, &services.ValidationError{Field: "file", Reason: "could not be read"}
	default:
		input.Cover = &media.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		}
		cleanup = func() {
			_ = file.Close()
			_ = r.MultipartForm.RemoveAll()
		}
	}
	return input, cleanup, nil
}

// CreatePost godoc
// @Summary Create a post
// @Tags Posts
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param summary formData string false "Summary"
// @Param content formData string true "Content (HTML)"
// @Param file formData file true "Cover image"
// @Success 200 {object} utils.Payload{data=models.Post}
// @Failure 400 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Failure 413 {object} utils.Payload
// @Router /api/v1/posts/create [post]
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, cleanup, err := h.readPostForm(w, r)
	defer cleanup()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	post, err := h.posts.Create(r.Context(), middleware.UserID(r.Context()), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "post created",
		slog.String("post_id", post.ID.String()),
		slog.String("author_id", post.AuthorID.String()))
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Post created successfully",
		Data:    post,
	})
}

// ListPosts godoc
// @Summary Latest posts
// @Description Returns the newest posts with their authors' usernames
// @Tags Posts
// @Produce json
// @Success 200 {object} utils.Payload{data=[]models.Post}
// @Failure 500 {object} utils.Payload
// @Router /api/v1/posts [get]
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Posts fetched successfully",
		Data:    posts,
	})
}

// GetPost godoc
// @Summary Get a post
// @Tags Posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} utils.Payload{data=models.Post}
// @Failure 404 {object} utils.Payload
// @Router /api/v1/posts/{id} [get]
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Post fetched successfully",
		Data:    post,
	})
}

// UpdatePost godoc
// @Summary Update a post
// @Description Only the author may update a post. The cover is replaced when a file is sent.
// @Tags Posts
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Post ID"
// @Param title formData string true "Title"
// @Param summary formData string false "Summary"
// @Param content formData string true "Content (HTML)"
// @Param file formData file false "New cover image"
// @Success 200 {object} utils.Payload{data=models.Post}
// @Failure 400 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/posts/{id} [put]
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	input, cleanup, err := h.readPostForm(w, r)
	defer cleanup()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	post, err := h.posts.Update(r.Context(), r.PathValue("id"), middleware.UserID(r.Context()), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Post updated successfully",
		Data:    post,
	})
}

// DeletePost godoc
// @Summary Delete a post
// @Description Only the author may delete a post. Its cover is removed as well.
// @Tags Posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/posts/{id} [delete]
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Delete(r.Context(), r.PathValue("id"), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "post deleted", slog.String("post_id", post.ID.String()))
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Post deleted successfully",
		Data:    map[string]string{"id": post.ID.String()},
	})
}
