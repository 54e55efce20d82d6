package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rohits-web03/inkwell/internal/config"
	"github.com/rohits-web03/inkwell/internal/media"
	"github.com/rohits-web03/inkwell/internal/models"
	"github.com/rohits-web03/inkwell/internal/repositories"
	"github.com/rohits-web03/inkwell/internal/utils"
)

// PageSize is the number of posts returned by List.
const PageSize = 15

// PostStore is the persistence the post service works against.
type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	Latest(ctx context.Context, limit int) ([]models.Post, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	FindByIDAndDelete(ctx context.Context, id uuid.UUID) (*models.Post, error)
	Save(ctx context.Context, post *models.Post) error
}

// PostInput carries the editable fields of a post. Cover is optional on
// update and required on create.
type PostInput struct {
	Title   string
	Summary string
	Content string
	Cover   *media.Upload
}

type PostService struct {
	posts   PostStore
	media   *media.Manager
	timeout time.Duration
}

func NewPostService(posts PostStore, manager *media.Manager, cfg config.Config) *PostService {
	return &PostService{
		posts:   posts,
		media:   manager,
		timeout: cfg.OpTimeout,
	}
}

// Create stores the cover and inserts the post. The cover is removed again
// when the insert fails.
func (s *PostService) Create(ctx context.Context, userID string, in PostInput) (*models.Post, error) {
	authorID, ok := utils.ParseID(userID)
	if !ok {
		return nil, ErrUnauthorized
	}
	if in.Cover == nil {
		return nil, ErrMissingCover
	}
	if err := validatePost(in); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	att, err := s.media.Attach(ctx, *in.Cover)
	if err != nil {
		return nil, opError(err)
	}

	post := &models.Post{
		Title:    in.Title,
		Summary:  in.Summary,
		Content:  in.Content,
		Cover:    att.Path,
		AuthorID: authorID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		att.Rollback(ctx)
		return nil, opError(err)
	}
	att.Commit(ctx)
	return post, nil
}

// List returns the newest posts with their authors' usernames.
func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	posts, err := s.posts.Latest(ctx, PageSize)
	if err != nil {
		return nil, opError(err)
	}
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	postID, ok := utils.ParseID(id)
	if !ok {
		return nil, repositories.ErrPostNotFound
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, opError(err)
	}
	return post, nil
}

// Update overwrites the text fields of a post owned by userID and swaps the
// cover when a new one is supplied. The old cover is only removed once the
// row points at the new one.
func (s *PostService) Update(ctx context.Context, id, userID string, in PostInput) (*models.Post, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	post, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := validatePost(in); err != nil {
		return nil, err
	}

	var att *media.Attachment
	if in.Cover != nil {
		att, err = s.media.Replace(ctx, post.Cover, *in.Cover)
		if err != nil {
			return nil, opError(err)
		}
		post.Cover = att.Path
	}

	post.Title = in.Title
	post.Summary = in.Summary
	post.Content = in.Content

	if err := s.posts.Save(ctx, post); err != nil {
		if att != nil {
			att.Rollback(ctx)
		}
		return nil, opError(err)
	}
	if att != nil {
		att.Commit(ctx)
	}
	return post, nil
}

// Delete removes a post owned by userID together with its cover.
func (s *PostService) Delete(ctx context.Context, id, userID string) (*models.Post, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	post, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	deleted, err := s.posts.FindByIDAndDelete(ctx, post.ID)
	if err != nil {
		return nil, opError(err)
	}
	s.media.Release(ctx, deleted.Cover)
	return deleted, nil
}

func (s *PostService) owned(ctx context.Context, id, userID string) (*models.Post, error) {
	postID, ok := utils.ParseID(id)
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	ownerID, ok := utils.ParseID(userID)
	if !ok {
		return nil, ErrUnauthorized
	}

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, opError(err)
	}
	if post.AuthorID != ownerID {
		return nil, ErrForbidden
	}
	return post, nil
}
