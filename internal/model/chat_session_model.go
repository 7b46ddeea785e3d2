package model

import (
	"time"

	"gorm.io/datatypes"
)

// ChatSession persists one conversational session wholesale per turn.
// The id comes from the caller, not the database.
type ChatSession struct {
	Id                  string         `gorm:"type:text;primaryKey"`
	ChatHistory         datatypes.JSON `gorm:"type:jsonb"`
	ConversationSummary string         `gorm:"type:text"`
	StructuredContext   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt           time.Time      `gorm:"autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
