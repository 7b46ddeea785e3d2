package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TrainingRecord is one append-only outcome row per answered query,
// kept for offline analysis of planner quality.
type TrainingRecord struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID     string         `gorm:"type:text;index"`
	Query         string         `gorm:"type:text;not null"`
	ToolCall      datatypes.JSON `gorm:"type:jsonb"`
	Outcome       string         `gorm:"type:text;not null;index"`
	AnalystMode   string         `gorm:"type:text"`
	ExecutionMode string         `gorm:"type:text"`
	ResultsCount  int            `gorm:"default:0"`
	ExecutionMs   int64          `gorm:"default:0"`
	FinalAnswer   string         `gorm:"type:text"`
	ErrorMessage  string         `gorm:"type:text"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
}

func (TrainingRecord) TableName() string {
	return "training_records"
}
