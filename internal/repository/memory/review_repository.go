package memory

import (
	"context"
	"time"

	"risk-review-be/internal/entity"
	"risk-review-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// ReviewRepository keeps records for the lifetime of the process, or for
// ttl when it is positive. Records are copied on the way in and out, so a
// caller holding a record can never mutate the stored one.
type ReviewRepository struct {
	cache *cache.Cache
}

var _ contract.ReviewRepository = (*ReviewRepository)(nil)

func NewReviewRepository(ttl time.Duration) *ReviewRepository {
	expiration := cache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = 10 * time.Minute
	}
	return &ReviewRepository{
		cache: cache.New(expiration, cleanup),
	}
}

func (r *ReviewRepository) Put(_ context.Context, record *entity.ReviewRecord) error {
	r.cache.Set(record.ReviewId, record.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *ReviewRepository) Get(_ context.Context, reviewId string) (*entity.ReviewRecord, error) {
	if x, found := r.cache.Get(reviewId); found {
		return x.(*entity.ReviewRecord).Clone(), nil
	}
	return nil, contract.ErrReviewNotFound
}

func (r *ReviewRepository) Count() int {
	return r.cache.ItemCount()
}
