package contract

import (
	"context"

	"campus-qa-be/internal/model"
)

// TrainingRepository appends query outcome records. Append-only.
type TrainingRepository interface {
	Append(ctx context.Context, record *model.TrainingRecord) error
}
