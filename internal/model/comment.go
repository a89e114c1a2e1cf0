package model

import "github.com/google/uuid"

type Comment struct {
	Base
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Message    string    `json:"message" db:"message"`
	IsReviewed bool      `json:"is_reviewed" db:"is_reviewed"`
}

type CommentFilter struct {
	ListParams
	UserID         *uuid.UUID
	UnreviewedOnly bool
}

type CreateCommentRequest struct {
	Message string `json:"message" binding:"required,notblank"`
}

type UpdateCommentRequest struct {
	Message    *string `json:"message"`
	IsReviewed *bool   `json:"is_reviewed"`
}
