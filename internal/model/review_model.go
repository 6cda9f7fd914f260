package model

import (
	"time"

	"gorm.io/datatypes"
)

type ReviewRecord struct {
	ReviewId  string         `gorm:"type:varchar(64);primaryKey"`
	Document  string         `gorm:"type:text;not null"`
	Settings  datatypes.JSON `gorm:"type:jsonb;not null"`
	Report    datatypes.JSON `gorm:"type:jsonb;not null"`
	State     string         `gorm:"type:varchar(20);not null"`
	Version   int            `gorm:"not null;default:1"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (ReviewRecord) TableName() string {
	return "review_records"
}
