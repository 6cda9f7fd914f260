package mapper

import (
	"encoding/json"
	"fmt"

	"risk-review-be/internal/entity"
	"risk-review-be/internal/model"

	"gorm.io/datatypes"
)

type ReviewMapper struct{}

func NewReviewMapper() *ReviewMapper {
	return &ReviewMapper{}
}

func (m *ReviewMapper) ToModel(r *entity.ReviewRecord) (*model.ReviewRecord, error) {
	if r == nil {
		return nil, nil
	}
	settings, err := json.Marshal(r.Settings)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	report, err := json.Marshal(r.Report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return &model.ReviewRecord{
		ReviewId:  r.ReviewId,
		Document:  r.Document,
		Settings:  datatypes.JSON(settings),
		Report:    datatypes.JSON(report),
		State:     string(r.State),
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func (m *ReviewMapper) ToEntity(r *model.ReviewRecord) (*entity.ReviewRecord, error) {
	if r == nil {
		return nil, nil
	}
	out := &entity.ReviewRecord{
		ReviewId:  r.ReviewId,
		Document:  r.Document,
		State:     entity.ReviewState(r.State),
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Settings, &out.Settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	if err := json.Unmarshal(r.Report, &out.Report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return out, nil
}
