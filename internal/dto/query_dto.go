package dto

import "campus-qa-be/pkg/store"

type AskRequest struct {
	Query     string `json:"query" validate:"required,min=1,max=2000"`
	SessionID string `json:"session_id" validate:"required,min=1,max=128"`
}

type AskResponse struct {
	Answer    string           `json:"answer"`
	SessionID string           `json:"session_id"`
	Evidence  []store.Document `json:"evidence,omitempty"`
}
