package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/facelens/backend/internal/domain"
)

// PaymentRepository appends to the payment ledger. Rows are immutable after
// creation; there are no update or delete operations.
type PaymentRepository struct {
	db *DB
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create appends one ledger row.
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (id, user_id, amount, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.q(ctx).Exec(ctx, query, p.ID, p.UserID, p.Amount, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// ListByUserID returns the user's ledger, newest first.
func (r *PaymentRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Payment, error) {
	query := `
		SELECT id, user_id, amount, created_at
		FROM payments WHERE user_id = $1 ORDER BY created_at DESC
	`
	rows, err := r.db.q(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.Amount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

// TrackedRequestRepository appends to the usage log.
type TrackedRequestRepository struct {
	db *DB
}

// NewTrackedRequestRepository creates a new TrackedRequestRepository.
func NewTrackedRequestRepository(db *DB) *TrackedRequestRepository {
	return &TrackedRequestRepository{db: db}
}

// Create appends one usage row.
func (r *TrackedRequestRepository) Create(ctx context.Context, t *domain.TrackedRequest) error {
	query := `
		INSERT INTO tracked_requests (id, user_id, endpoint, usage_record_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.q(ctx).Exec(ctx, query, t.ID, t.UserID, t.Endpoint, t.UsageRecordID, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tracked request: %w", err)
	}
	return nil
}

// CountSince returns how many requests the user made at or after the given
// time. The billing summary passes the 1st of the current month.
func (r *TrackedRequestRepository) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM tracked_requests WHERE user_id = $1 AND created_at >= $2`
	var count int64
	if err := r.db.q(ctx).QueryRow(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tracked requests: %w", err)
	}
	return count, nil
}
