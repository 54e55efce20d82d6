package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rohits-web03/inkwell/internal/config"
	"github.com/rohits-web03/inkwell/internal/models"
	"github.com/rohits-web03/inkwell/internal/repositories"
	"github.com/rohits-web03/inkwell/internal/session"
	"github.com/rohits-web03/inkwell/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the credential store the auth service works against.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*models.User, error)
}

type RegisterInput struct {
	Fullname string `json:"fullname"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is an authenticated user together with its session token.
type LoginResult struct {
	User  *models.User
	Token string
}

type AuthService struct {
	users   UserStore
	tokens  *session.Service
	uniform bool
	timeout time.Duration
}

func NewAuthService(users UserStore, tokens *session.Service, cfg config.Config) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokens,
		uniform: cfg.UniformLoginErrors,
		timeout: cfg.OpTimeout,
	}
}

// Register creates a user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Fullname = strings.TrimSpace(in.Fullname)
	in.Username = strings.TrimSpace(in.Username)
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	if _, err := s.findByUsername(ctx, in.Username); err == nil {
		return nil, repositories.ErrUsernameTaken
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Fullname: in.Fullname,
		Username: in.Username,
		Password: string(hash),
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks username and password and issues a session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, &ValidationError{Field: "username and password", Reason: "are required"}
	}

	user, err := s.findByUsername(ctx, username)
	if errors.Is(err, repositories.ErrUserNotFound) {
		// keep response time independent of whether the user exists
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if s.uniform {
			return nil, ErrInvalidCredentials
		}
		return nil, ErrIncorrectPassword
	}

	return s.issue(user)
}

// Profile resolves the user behind token. The returned user carries no
// password hash.
func (s *AuthService) Profile(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	id, ok := utils.ParseID(claims.UserID)
	if !ok {
		return nil, repositories.ErrUserNotFound
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, opError(err)
	}
	return user, nil
}

// GoogleSignIn logs in the account linked to profile, creating it on first
// use. Such accounts get an unguessable password and can only sign in
// through Google.
func (s *AuthService) GoogleSignIn(ctx context.Context, profile GoogleProfile) (*LoginResult, error) {
	if profile.ID == "" {
		return nil, &ValidationError{Field: "google account", Reason: "has no id"}
	}

	user, err := s.findByGoogleID(ctx, profile.ID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		user, err = s.createGoogleUser(ctx, profile)
	}
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) createGoogleUser(ctx context.Context, profile GoogleProfile) (*models.User, error) {
	secret, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	fullname := strings.TrimSpace(profile.Name)
	if fullname == "" {
		fullname = profile.Email
	}
	googleID := profile.ID
	username := googleUsernamePrefix + profile.ID

	for attempt := 0; ; attempt++ {
		user := &models.User{
			Fullname: fullname,
			Username: username,
			Password: string(hash),
			GoogleID: &googleID,
		}
		err = s.create(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repositories.ErrUsernameTaken) {
			return nil, err
		}

		// a concurrent callback may have linked the account first
		linked, findErr := s.findByGoogleID(ctx, profile.ID)
		if !errors.Is(findErr, repositories.ErrUserNotFound) {
			return linked, findErr
		}
		if attempt == maxGoogleUsernameAttempts-1 {
			return nil, err
		}
		// the name belongs to an unrelated account
		username = googleUsernamePrefix + profile.ID + "_" + uuid.NewString()[:8]
	}
}

func (s *AuthService) issue(user *models.User) (*LoginResult, error) {
	token, err := s.tokens.Issue(user.ID.String(), user.Username)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token}, nil
}

func (s *AuthService) findByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	user, err := s.users.FindByUsername(ctx, username)
	return user, opError(err)
}

func (s *AuthService) findByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	user, err := s.users.FindByGoogleID(ctx, googleID)
	return user, opError(err)
}

func (s *AuthService) create(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return opError(s.users.Create(ctx, user))
}

const maxGoogleUsernameAttempts = 3

var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("inkwell-dummy-password"), bcrypt.DefaultCost)
	return hash
})
