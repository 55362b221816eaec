package repository

import (
	"context"
	"fmt"

	"github.com/facelens/backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

// UserRepository handles database operations for users.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, password, provider_customer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.q(ctx).Exec(ctx, query,
		u.ID, u.Email, u.Password, u.ProviderCustomerID, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByEmail returns a user by email address, or nil when absent.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, password, provider_customer_id, created_at, updated_at
		FROM users WHERE email = $1
	`
	return r.scanOne(r.db.q(ctx).QueryRow(ctx, query, email))
}

// FindByID returns a user by ID, or nil when absent.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, password, provider_customer_id, created_at, updated_at
		FROM users WHERE id = $1
	`
	return r.scanOne(r.db.q(ctx).QueryRow(ctx, query, id))
}

func (r *UserRepository) scanOne(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.ProviderCustomerID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// Exists checks if a user with the given email already exists.
func (r *UserRepository) Exists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	err := r.db.q(ctx).QueryRow(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// UpdateEmail changes the account email.
func (r *UserRepository) UpdateEmail(ctx context.Context, id, email string) error {
	_, err := r.db.q(ctx).Exec(ctx,
		`UPDATE users SET email = $1, updated_at = NOW() WHERE id = $2`, email, id)
	if err != nil {
		return fmt.Errorf("failed to update email: %w", err)
	}
	return nil
}

// UpdatePassword stores a new bcrypt hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	_, err := r.db.q(ctx).Exec(ctx,
		`UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
