package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rohits-web03/inkwell/internal/config"
	"github.com/rohits-web03/inkwell/internal/media"
	"github.com/rohits-web03/inkwell/internal/models"
	"github.com/rohits-web03/inkwell/internal/repositories"
	"github.com/rohits-web03/inkwell/internal/session"
)

func testConfig() config.Config {
	return config.Config{
		OpTimeout:          time.Second,
		UniformLoginErrors: true,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUsers is an in-memory UserStore.
type fakeUsers struct {
	mu      sync.Mutex
	byName  map[string]*models.User
	findErr error
	block   bool
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byName: map[string]*models.User{}}
}

func (f *fakeUsers) wait(ctx context.Context) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeUsers) Create(ctx context.Context, user *models.User) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[user.Username]; ok {
		return repositories.ErrUsernameTaken
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	stored := *user
	f.byName[user.Username] = &stored
	return nil
}

func (f *fakeUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byName[username]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	found := *u
	return &found, nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			found := *u
			found.Password = ""
			return &found, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUsers) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			found := *u
			return &found, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

// fakePosts is an in-memory PostStore.
type fakePosts struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]models.Post
	createErr error
	saveErr   error
	block     bool
	lastLimit int
}

func newFakePosts() *fakePosts {
	return &fakePosts{byID: map[uuid.UUID]models.Post{}}
}

func (f *fakePosts) Create(ctx context.Context, post *models.Post) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	f.byID[post.ID] = *post
	return nil
}

func (f *fakePosts) Latest(ctx context.Context, limit int) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	posts := make([]models.Post, 0, len(f.byID))
	for _, p := range f.byID {
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (f *fakePosts) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	return &p, nil
}

func (f *fakePosts) FindByIDAndDelete(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	delete(f.byID, id)
	return &p, nil
}

func (f *fakePosts) Save(ctx context.Context, post *models.Post) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[post.ID]; !ok {
		return repositories.ErrPostNotFound
	}
	f.byID[post.ID] = *post
	return nil
}

// memBackend keeps covers in memory.
type memBackend struct {
	mu       sync.Mutex
	files    map[string]string
	removed  []string
	storeErr error
	seq      int
}

func newMemBackend() *memBackend {
	return &memBackend{files: map[string]string{}}
}

func (b *memBackend) Store(ctx context.Context, body io.Reader, ext, _ string) (string, error) {
	if b.storeErr != nil {
		return "", b.storeErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	path := fmt.Sprintf("uploads/cover-%d%s", b.seq, ext)
	b.files[path] = string(data)
	return path, nil
}

func (b *memBackend) Remove(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removed = append(b.removed, path)
	delete(b.files, path)
	return nil
}

func (b *memBackend) has(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.files[path]
	return ok
}

func newTokensWithSecret(secret string) *session.Service {
	return session.NewService(secret, time.Hour)
}

func newTokens() *session.Service {
	return session.NewService("test-secret", time.Hour)
}

func newTestPostService(cfg config.Config) (*PostService, *fakePosts, *memBackend) {
	posts := newFakePosts()
	backend := newMemBackend()
	return NewPostService(posts, media.NewManager(backend, discardLogger()), cfg), posts, backend
}
