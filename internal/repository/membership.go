package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/facelens/backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

// MembershipRepository handles database operations for the one-to-one
// membership rows. All writes happen inside state-machine transitions, so the
// membership service always calls these through DB.WithTx.
type MembershipRepository struct {
	db *DB
}

// NewMembershipRepository creates a new MembershipRepository.
func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Create inserts the membership row for a new user.
func (r *MembershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	query := `
		INSERT INTO memberships (user_id, status, start_date, end_date, provider_subscription_id, provider_subscription_item_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.q(ctx).Exec(ctx, query,
		m.UserID, string(m.Status), m.StartDate, m.EndDate,
		m.ProviderSubscriptionID, m.ProviderSubscriptionItemID, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// FindByUserID returns the membership for a user, or nil when absent.
func (r *MembershipRepository) FindByUserID(ctx context.Context, userID string) (*domain.Membership, error) {
	query := `
		SELECT user_id, status, start_date, end_date, provider_subscription_id, provider_subscription_item_id, updated_at
		FROM memberships WHERE user_id = $1
	`
	row := r.db.q(ctx).QueryRow(ctx, query, userID)

	var m domain.Membership
	var status string
	err := row.Scan(&m.UserID, &status, &m.StartDate, &m.EndDate,
		&m.ProviderSubscriptionID, &m.ProviderSubscriptionItemID, &m.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan membership: %w", err)
	}
	m.Status = domain.MembershipStatus(status)
	return &m, nil
}

// Update persists the full membership state after a transition.
func (r *MembershipRepository) Update(ctx context.Context, m *domain.Membership) error {
	query := `
		UPDATE memberships
		SET status = $1, start_date = $2, end_date = $3,
		    provider_subscription_id = $4, provider_subscription_item_id = $5,
		    updated_at = NOW()
		WHERE user_id = $6
	`
	_, err := r.db.q(ctx).Exec(ctx, query,
		string(m.Status), m.StartDate, m.EndDate,
		m.ProviderSubscriptionID, m.ProviderSubscriptionItemID, m.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}
	return nil
}

// ExpireTrials flips every free_trial membership whose end date has passed to
// not_member and returns how many rows changed. The transition is the same as
// reconcile-on-login, so running it repeatedly is harmless.
func (r *MembershipRepository) ExpireTrials(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE memberships
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND end_date < $3
	`
	tag, err := r.db.q(ctx).Exec(ctx, query,
		string(domain.StatusNotMember), string(domain.StatusFreeTrial), now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire trials: %w", err)
	}
	return tag.RowsAffected(), nil
}
