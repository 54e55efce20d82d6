package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/rohits-web03/inkwell/internal/api/services"
	"github.com/rohits-web03/inkwell/internal/config"
	"github.com/rohits-web03/inkwell/internal/session"
	"github.com/rohits-web03/inkwell/internal/utils"
)

// GoogleAuth runs the Google OAuth2 code flow.
type GoogleAuth interface {
	AuthCodeURL(state string) string
	Profile(ctx context.Context, code string) (services.GoogleProfile, error)
}

type AuthHandler struct {
	auth    *services.AuthService
	google  GoogleAuth
	cookies cookies
	baseURL string
	logger  *slog.Logger
}

// NewAuthHandler wires the auth routes. google may be nil, which disables
// Google sign-in.
func NewAuthHandler(auth *services.AuthService, google GoogleAuth, cfg config.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		google:  google,
		cookies: cookies{production: cfg.IsProduction(), ttl: cfg.TokenTTL},
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

type loginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &services.ValidationError{Field: "body", Reason: "is not valid JSON"}
	}
	return nil
}

// Register godoc
// @Summary Register a new account
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Account details"
// @Success 200 {object} utils.Payload{data=models.User}
// @Failure 400 {object} utils.Payload
// @Failure 409 {object} utils.Payload
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user registered", slog.String("user_id", user.ID.String()))
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "User registered successfully",
		Data:    user,
	})
}

// Login godoc
// @Summary Log in with username and password
// @Description Sets the session cookie on success
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body loginInput true "Credentials"
// @Success 200 {object} utils.Payload{data=sessionUser}
// @Failure 400 {object} utils.Payload
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Login(r.Context(), input.Username, input.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, h.cookies.session(res.Token))
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Login successful",
		Data:    sessionUser{ID: res.User.ID.String(), Username: res.User.Username},
	})
}

// Profile godoc
// @Summary Current user
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.Payload{data=models.User}
// @Failure 401 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		token = cookie.Value
	}

	user, err := h.auth.Profile(r.Context(), token)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Profile fetched successfully",
		Data:    user,
	})
}

// Logout godoc
// @Summary Log out
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.Payload
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookies.clearSession())
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Logged out successfully",
	})
}

// GoogleLogin godoc
// @Summary Start Google sign-in
// @Tags Auth
// @Param redirect query string false "login or register"
// @Success 307
// @Failure 404 {object} utils.Payload
// @Router /api/v1/auth/google/login [get]
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		utils.Fail(w, http.StatusNotFound, "Google sign-in is not configured")
		return
	}

	state, err := GenerateState(map[string]string{"flow": flowOf(r.URL.Query().Get("redirect"))})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, h.cookies.state(state))
	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback godoc
// @Summary Finish Google sign-in
// @Description Sets the session cookie and redirects to the frontend
// @Tags Auth
// @Param state query string true "OAuth state"
// @Param code query string true "Authorization code"
// @Success 307
// @Failure 400 {object} utils.Payload
// @Failure 502 {object} utils.Payload
// @Router /api/v1/auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		utils.Fail(w, http.StatusNotFound, "Google sign-in is not configured")
		return
	}

	state := r.FormValue("state")
	stored, err := r.Cookie(stateCookieName)
	http.SetCookie(w, h.cookies.clearState())
	if err != nil || stored.Value == "" || stored.Value != state {
		utils.Fail(w, http.StatusBadRequest, "Invalid OAuth state")
		return
	}
	stateData, err := DecodeState(state)
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid OAuth state")
		return
	}

	profile, err := h.google.Profile(r.Context(), r.FormValue("code"))
	if err != nil {
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			writeError(w, r, h.logger, err)
			return
		}
		h.logger.WarnContext(r.Context(), "google sign-in failed", slog.Any("error", err))
		utils.Fail(w, http.StatusBadGateway, "Failed to sign in with Google")
		return
	}

	res, err := h.auth.GoogleSignIn(r.Context(), profile)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, h.cookies.session(res.Token))
	http.Redirect(w, r, h.baseURL+"/?status="+url.QueryEscape("success_"+flowOf(stateData["flow"])), http.StatusTemporaryRedirect)
}

func flowOf(s string) string {
	if s == "register" {
		return "register"
	}
	return "login"
}
