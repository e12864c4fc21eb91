package store

import (
	"context"
	"errors"

	"github.com/agrovision/cattle-api/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a create violates the unique login-key
	// index. Callers resolve it by re-fetching the existing record.
	ErrDuplicate = errors.New("store: duplicate key")
)

// Users is the credential store. Uniqueness of the email_or_phone login key
// is enforced by the backing storage, not by check-then-act in callers.
type Users interface {
	FindByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	FindByLoginKey(ctx context.Context, key string) (*models.User, error)
	FindByUserID(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

// Reports persists prediction outcomes.
type Reports interface {
	Insert(ctx context.Context, report *models.Report) error
	ListByUser(ctx context.Context, userID string) ([]models.Report, error)
	ListAll(ctx context.Context) ([]models.Report, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	DiseaseDistribution(ctx context.Context) ([]models.DiseaseCount, error)
	Recent(ctx context.Context, limit int64) ([]models.ReportSummary, error)
}
