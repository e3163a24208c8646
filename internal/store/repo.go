package store

import (
	"context"
	"errors"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/domain"
)

// ErrNotFound is returned when a row does not exist or belongs to another chat.
var ErrNotFound = errors.New("not found")

// Repo defines storage operations for users, medications, and their reminder rules.
// Every medication and rule operation is scoped to the owning chat.
type Repo interface {
	UpsertUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, chatID int64) (*domain.User, error)

	CreateMedication(ctx context.Context, m *domain.Medication) error
	GetMedication(ctx context.Context, chatID, id int64) (*domain.Medication, error)
	ListMedications(ctx context.Context, chatID int64) ([]domain.Medication, error)
	SetStock(ctx context.Context, chatID, id int64, stock int) error
	DeleteMedication(ctx context.Context, chatID, id int64) error

	CreateRule(ctx context.Context, chatID int64, r *domain.Rule) error
	SetRuleEnabled(ctx context.Context, chatID, ruleID int64, enabled bool) error
	DeleteRule(ctx context.Context, chatID, ruleID int64) error

	Close() error
}
