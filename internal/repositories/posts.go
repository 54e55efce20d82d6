package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rohits-web03/inkwell/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// withAuthor preloads the public author projection.
func withAuthor(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Author", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "username")
	})
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Latest returns at most limit posts, newest first.
func (r *PostRepository) Latest(ctx context.Context, limit int) ([]models.Post, error) {
	posts := make([]models.Post, 0, limit)
	err := withAuthor(r.db.WithContext(ctx)).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	err := withAuthor(r.db.WithContext(ctx)).Where("id = ?", id).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &post, nil
}

// FindByIDAndDelete removes the post and returns the row as it was, in a
// single DELETE ... RETURNING statement.
func (r *PostRepository) FindByIDAndDelete(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	res := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Delete(&post)
	if res.Error != nil {
		return nil, fmt.Errorf("db error: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrPostNotFound
	}
	return &post, nil
}

// Save persists the mutable fields of post.
func (r *PostRepository) Save(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).
		Model(post).
		Omit(clause.Associations).
		Updates(map[string]any{
			"title":   post.Title,
			"summary": post.Summary,
			"content": post.Content,
			"cover":   post.Cover,
		})
	if res.Error != nil {
		return fmt.Errorf("db error: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}
