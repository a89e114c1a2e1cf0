package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type commentRepository struct {
	BaseRepository
}

func NewCommentRepository(base BaseRepository) repository.CommentRepository {
	return &commentRepository{base}
}

func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (id, user_id, message, is_reviewed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.UserID, c.Message, c.IsReviewed, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return mapError(fmt.Errorf("failed to create comment: %w", err), "comment")
	}
	return nil
}

func (r *commentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	var c model.Comment
	query := `SELECT id, user_id, message, is_reviewed, created_at, updated_at FROM comments WHERE id = $1`
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, mapError(err, "comment")
	}
	return &c, nil
}

func (r *commentRepository) List(ctx context.Context, filter model.CommentFilter) ([]*model.Comment, error) {
	var w where
	w.search(filter.Search, "message")
	if filter.UserID != nil {
		w.add("user_id = ?", *filter.UserID)
	}
	if filter.UnreviewedOnly {
		w.add("is_reviewed = FALSE")
	}
	limit, args := w.page(filter.Limit(), filter.Offset())

	query := `SELECT id, user_id, message, is_reviewed, created_at, updated_at FROM comments` +
		w.String() + ` ORDER BY created_at DESC` + limit

	comments := []*model.Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, c *model.Comment) error {
	c.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx,
		`UPDATE comments SET message = $1, is_reviewed = $2, updated_at = $3 WHERE id = $4`,
		c.Message, c.IsReviewed, c.UpdatedAt, c.ID)
	if err != nil {
		return mapError(fmt.Errorf("failed to update comment: %w", err), "comment")
	}
	return expectOne(result, "comment")
}
