package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"campus-qa-be/internal/model"
	"campus-qa-be/internal/repository/contract"
	"campus-qa-be/pkg/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepositoryImpl struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) contract.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

func (r *SessionRepositoryImpl) FindByID(ctx context.Context, sessionID string) (*store.Session, error) {
	var m model.ChatSession
	if err := r.db.WithContext(ctx).First(&m, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toSession(&m)
}

func (r *SessionRepositoryImpl) Upsert(ctx context.Context, session *store.Session) error {
	m, err := toModel(session)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(m).Error
}

func toModel(s *store.Session) (*model.ChatSession, error) {
	history, err := json.Marshal(s.ChatHistory)
	if err != nil {
		return nil, fmt.Errorf("marshal chat history: %w", err)
	}
	structured, err := json.Marshal(s.StructuredContext)
	if err != nil {
		return nil, fmt.Errorf("marshal structured context: %w", err)
	}
	return &model.ChatSession{
		Id:                  s.SessionID,
		ChatHistory:         history,
		ConversationSummary: s.ConversationSummary,
		StructuredContext:   structured,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}, nil
}

func toSession(m *model.ChatSession) (*store.Session, error) {
	s := store.NewSession(m.Id)
	s.ConversationSummary = m.ConversationSummary
	s.CreatedAt = m.CreatedAt
	s.UpdatedAt = m.UpdatedAt

	if len(m.ChatHistory) > 0 {
		if err := json.Unmarshal(m.ChatHistory, &s.ChatHistory); err != nil {
			return nil, fmt.Errorf("unmarshal chat history: %w", err)
		}
	}
	if len(m.StructuredContext) > 0 {
		if err := json.Unmarshal(m.StructuredContext, &s.StructuredContext); err != nil {
			return nil, fmt.Errorf("unmarshal structured context: %w", err)
		}
	}
	// Default missing sub-fields so callers never see nil maps
	if s.StructuredContext.ActiveFilters == nil {
		s.StructuredContext.ActiveFilters = map[string]interface{}{}
	}
	return s, nil
}
