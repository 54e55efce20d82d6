package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rohits-web03/inkwell/internal/api/services"
	"github.com/rohits-web03/inkwell/internal/repositories"
	"github.com/rohits-web03/inkwell/internal/utils"
)

var errBodyTooLarge = errors.New("request body too large")

// statusFor maps an error returned by the services to a status code and a
// message that is safe to show to clients.
func statusFor(err error) (int, string) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.Is(err, services.ErrMissingCover):
		return http.StatusBadRequest, "Cover image is required"
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "Upload is too large"
	case errors.Is(err, repositories.ErrUsernameTaken):
		return http.StatusConflict, "Username is already taken"
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusBadRequest, "Incorrect username or password"
	case errors.Is(err, services.ErrIncorrectPassword):
		return http.StatusBadRequest, "Incorrect password"
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, repositories.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, repositories.ErrPostNotFound):
		return http.StatusNotFound, "Post not found"
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout, "Operation timed out"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	utils.Fail(w, status, message)
}
