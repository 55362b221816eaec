package service

import (
	"context"
	"time"

	"github.com/facelens/backend/internal/domain"
)

// Store interfaces consumed by the services. The pgx repositories satisfy
// them; tests substitute in-memory fakes.

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Exists(ctx context.Context, email string) (bool, error)
	UpdateEmail(ctx context.Context, id, email string) error
	UpdatePassword(ctx context.Context, id, hash string) error
}

type membershipStore interface {
	Create(ctx context.Context, m *domain.Membership) error
	FindByUserID(ctx context.Context, userID string) (*domain.Membership, error)
	Update(ctx context.Context, m *domain.Membership) error
	ExpireTrials(ctx context.Context, now time.Time) (int64, error)
}

type paymentStore interface {
	Create(ctx context.Context, p *domain.Payment) error
	ListByUserID(ctx context.Context, userID string) ([]*domain.Payment, error)
}

type trackedRequestStore interface {
	Create(ctx context.Context, t *domain.TrackedRequest) error
	CountSince(ctx context.Context, userID string, since time.Time) (int64, error)
}

// txRunner scopes a function to one database transaction. repository.DB
// implements it; fakes run the function directly.
type txRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

func formatValidationErrors(err error) string {
	return err.Error()
}
