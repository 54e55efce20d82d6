package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rohits-web03/inkwell/internal/api/middleware"
	"github.com/rohits-web03/inkwell/internal/api/services"
	"github.com/rohits-web03/inkwell/internal/config"
	"github.com/rohits-web03/inkwell/internal/media"
	"github.com/rohits-web03/inkwell/internal/models"
	"github.com/rohits-web03/inkwell/internal/repositories"
	"github.com/rohits-web03/inkwell/internal/session"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
	return config.Config{
		Environment:        "development",
		BaseURL:            "http://localhost:5173",
		TokenTTL:           time.Hour,
		OpTimeout:          time.Second,
		MaxUploadBytes:     1 << 20,
		UniformLoginErrors: true,
	}
}

type memUsers struct {
	mu    sync.Mutex
	users []models.User
}

func (m *memUsers) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return repositories.ErrUsernameTaken
		}
	}
	user.ID = uuid.New()
	m.users = append(m.users, *user)
	return nil
}

func (m *memUsers) find(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (m *memUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.Username == username })
}

func (m *memUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := m.find(func(u models.User) bool { return u.ID == id })
	if u != nil {
		u.Password = ""
	}
	return u, err
}

func (m *memUsers) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.GoogleID != nil && *u.GoogleID == googleID })
}

type memPosts struct {
	mu    sync.Mutex
	posts map[uuid.UUID]models.Post
}

func (m *memPosts) Create(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	post.ID = uuid.New()
	m.posts[post.ID] = *post
	return nil
}

func (m *memPosts) Latest(ctx context.Context, limit int) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Post
	for _, p := range m.posts {
		out = append(out, p)
	}
	return out, nil
}

func (m *memPosts) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	return &p, nil
}

func (m *memPosts) FindByIDAndDelete(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	delete(m.posts, id)
	return &p, nil
}

func (m *memPosts) Save(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[post.ID]; !ok {
		return repositories.ErrPostNotFound
	}
	m.posts[post.ID] = *post
	return nil
}

type memCovers struct {
	mu    sync.Mutex
	files map[string][]byte
	seq   int
}

func (m *memCovers) Store(ctx context.Context, body io.Reader, ext, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	path := fmt.Sprintf("uploads/%d%s", m.seq, ext)
	m.files[path] = data
	return path, nil
}

func (m *memCovers) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

type fakeGoogle struct {
	profile services.GoogleProfile
	err     error
}

func (f *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeGoogle) Profile(ctx context.Context, code string) (services.GoogleProfile, error) {
	return f.profile, f.err
}

// testEnv mounts the handlers on the same patterns the router uses.
type testEnv struct {
	mux    *http.ServeMux
	tokens *session.Service
	users  *memUsers
	posts  *memPosts
	covers *memCovers
}

func newTestEnv(t *testing.T, cfg config.Config, google GoogleAuth) *testEnv {
	t.Helper()
	env := &testEnv{
		tokens: session.NewService("test-secret", cfg.TokenTTL),
		users:  &memUsers{},
		posts:  &memPosts{posts: map[uuid.UUID]models.Post{}},
		covers: &memCovers{files: map[string][]byte{}},
	}
	logger := discardLogger()
	auth := NewAuthHandler(services.NewAuthService(env.users, env.tokens, cfg), google, cfg, logger)
	posts := NewPostHandler(services.NewPostService(env.posts, media.NewManager(env.covers, logger), cfg), cfg, logger)
	requireAuth := middleware.RequireAuth(env.tokens, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", auth.Register)
	mux.HandleFunc("POST /login", auth.Login)
	mux.HandleFunc("GET /profile", auth.Profile)
	mux.HandleFunc("POST /logout", auth.Logout)
	mux.HandleFunc("GET /google/login", auth.GoogleLogin)
	mux.HandleFunc("GET /google/callback", auth.GoogleCallback)
	mux.HandleFunc("GET /posts", posts.List)
	mux.HandleFunc("GET /posts/{id}", posts.Get)
	mux.Handle("POST /posts/create", requireAuth(http.HandlerFunc(posts.Create)))
	mux.Handle("PUT /posts/{id}", requireAuth(http.HandlerFunc(posts.Update)))
	mux.Handle("DELETE /posts/{id}", requireAuth(http.HandlerFunc(posts.Delete)))
	env.mux = mux
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.mux.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) postJSON(path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

// signUp registers and logs in a user, returning its session cookie.
func (e *testEnv) signUp(t *testing.T, username string) *http.Cookie {
	t.Helper()
	rr := e.postJSON("/register", map[string]string{"fullname": "Test User", "username": username, "password": "password1"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = e.postJSON("/login", map[string]string{"username": username, "password": "password1"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return sessionCookie(t, rr)
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", session.CookieName)
	return nil
}

type formFile struct {
	name string
	data []byte
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, file *formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", file.name)
		require.NoError(t, err)
		_, err = fw.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type decodedPayload struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) decodedPayload {
	t.Helper()
	var p decodedPayload
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p), rr.Body.String())
	return p
}

