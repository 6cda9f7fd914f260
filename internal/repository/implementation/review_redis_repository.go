package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"risk-review-be/internal/entity"
	"risk-review-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

// redisRecord is the stored JSON shape. entity.ReviewRecord carries no json
// tags on its bookkeeping fields, so the layout is pinned here.
type redisRecord struct {
	ReviewId  string          `json:"reviewId"`
	Document  string          `json:"document"`
	Settings  entity.Settings `json:"settings"`
	Report    entity.Report   `json:"report"`
	State     string          `json:"state"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ReviewRedisRepository stores each record as one JSON value, so a single
// SET replaces it atomically.
type ReviewRedisRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ contract.ReviewRepository = (*ReviewRedisRepository)(nil)

func NewReviewRedisRepository(redisURL string, ttl time.Duration) (*ReviewRedisRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewReviewRedisRepositoryWithClient(client, ttl), nil
}

func NewReviewRedisRepositoryWithClient(client *redis.Client, ttl time.Duration) *ReviewRedisRepository {
	return &ReviewRedisRepository{
		client: client,
		prefix: "review:",
		ttl:    ttl,
	}
}

func (r *ReviewRedisRepository) key(reviewId string) string {
	return r.prefix + reviewId
}

func (r *ReviewRedisRepository) Put(ctx context.Context, record *entity.ReviewRecord) error {
	data, err := json.Marshal(redisRecord{
		ReviewId:  record.ReviewId,
		Document:  record.Document,
		Settings:  record.Settings,
		Report:    record.Report,
		State:     string(record.State),
		Version:   record.Version,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal review record: %w", err)
	}

	// ttl 0 keeps the key forever
	if err := r.client.Set(ctx, r.key(record.ReviewId), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save review record: %w", err)
	}
	return nil
}

func (r *ReviewRedisRepository) Get(ctx context.Context, reviewId string) (*entity.ReviewRecord, error) {
	raw, err := r.client.Get(ctx, r.key(reviewId)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, contract.ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup review record: %w", err)
	}

	var data redisRecord
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal review record: %w", err)
	}
	return &entity.ReviewRecord{
		ReviewId:  data.ReviewId,
		Document:  data.Document,
		Settings:  data.Settings,
		Report:    data.Report,
		State:     entity.ReviewState(data.State),
		Version:   data.Version,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}, nil
}

func (r *ReviewRedisRepository) Close() error {
	return r.client.Close()
}

func (r *ReviewRedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
