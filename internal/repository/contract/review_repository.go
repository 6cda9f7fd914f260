package contract

import (
	"context"
	"errors"

	"risk-review-be/internal/entity"
)

var ErrReviewNotFound = errors.New("review record not found")

// ReviewRepository is the Review Record Store. Records are only ever
// replaced whole; Put for one id must never let a concurrent Get observe a
// half-written record.
type ReviewRepository interface {
	// Put creates or overwrites the record stored under record.ReviewId.
	Put(ctx context.Context, record *entity.ReviewRecord) error
	// Get returns ErrReviewNotFound when nothing is stored under reviewId.
	Get(ctx context.Context, reviewId string) (*entity.ReviewRecord, error)
}
