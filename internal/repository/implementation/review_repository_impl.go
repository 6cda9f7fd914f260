package implementation

import (
	"context"
	"errors"

	"risk-review-be/internal/entity"
	"risk-review-be/internal/mapper"
	"risk-review-be/internal/model"
	"risk-review-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReviewMapper
}

var _ contract.ReviewRepository = (*ReviewRepositoryImpl)(nil)

func NewReviewRepository(db *gorm.DB) *ReviewRepositoryImpl {
	return &ReviewRepositoryImpl{
		db:     db,
		mapper: mapper.NewReviewMapper(),
	}
}

// Put is a single INSERT .. ON CONFLICT DO UPDATE, so the row is replaced
// in one statement.
func (r *ReviewRepositoryImpl) Put(ctx context.Context, record *entity.ReviewRecord) error {
	m, err := r.mapper.ToModel(record)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "review_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "settings", "report", "state", "version", "updated_at"}),
		}).
		Create(m).Error
}

func (r *ReviewRepositoryImpl) Get(ctx context.Context, reviewId string) (*entity.ReviewRecord, error) {
	var m model.ReviewRecord
	if err := r.db.WithContext(ctx).Where("review_id = ?", reviewId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, contract.ErrReviewNotFound
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *ReviewRepositoryImpl) Migrate() error {
	return r.db.AutoMigrate(&model.ReviewRecord{})
}
