package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/facelens/backend/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, credentials, and JWT issuance. Signup and
// login call into the membership state machine explicitly (trial start and
// reconcile); there is no implicit event dispatch.
type AuthService struct {
	jwtSecret   string
	users       userStore
	memberships *MembershipService
	validate    *validator.Validate
}

// NewAuthService creates a new AuthService.
func NewAuthService(jwtSecret string, users userStore, memberships *MembershipService) *AuthService {
	return &AuthService{
		jwtSecret:   jwtSecret,
		users:       users,
		memberships: memberships,
		validate:    validator.New(),
	}
}

// Register creates an account. The membership service creates the provider
// customer, the user row, and the 14-day trial as one unit; if the provider
// is down the signup fails with no local rows.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(formatValidationErrors(err))
	}

	exists, err := s.users.Exists(ctx, req.Email)
	if err != nil {
		return nil, domain.ErrInternal("failed to check user", err)
	}
	if exists {
		return nil, domain.ErrBadRequest("email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ErrInternal("failed to hash password", err)
	}

	user, err := s.memberships.StartTrial(ctx, req.Email, string(hashed))
	if err != nil {
		return nil, err
	}

	return &domain.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

// Login validates credentials, reconciles membership state against the
// provider, and returns a JWT. Reconcile failures never fail the login; they
// are logged and counted for operators.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthenticated("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.ErrUnauthenticated("invalid credentials")
	}

	if err := s.memberships.Reconcile(ctx, user.ID); err != nil {
		log.Printf("login reconcile for %s failed: %v", user.ID, err)
	}

	signed, err := s.signToken(user, 7*24*time.Hour)
	if err != nil {
		return nil, domain.ErrInternal("failed to sign token", err)
	}

	return &domain.LoginResponse{
		Token: signed,
		User: domain.LoginUser{
			ID:    user.ID,
			Email: user.Email,
		},
	}, nil
}

// APIToken issues a long-lived token for programmatic access to the metered
// API.
func (s *AuthService) APIToken(ctx context.Context, userID string) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return "", domain.ErrNotFound("user not found")
	}
	signed, err := s.signToken(user, 365*24*time.Hour)
	if err != nil {
		return "", domain.ErrInternal("failed to sign token", err)
	}
	return signed, nil
}

func (s *AuthService) signToken(user *domain.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   time.Now().Add(ttl).Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// VerifyToken validates a JWT token and returns the claims.
func (s *AuthService) VerifyToken(tokenStr string) (*domain.JWTClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, domain.ErrUnauthenticated("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthenticated("invalid token claims")
	}

	return &domain.JWTClaims{
		Sub:   getClaimString(claims, "sub"),
		Email: getClaimString(claims, "email"),
	}, nil
}

func getClaimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// GetUserByID returns a user profile by ID (for /api/auth/me).
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*domain.UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user not found")
	}
	return &domain.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

// ChangeEmail updates the account email after checking the confirmation.
func (s *AuthService) ChangeEmail(ctx context.Context, userID string, req *domain.ChangeEmailRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return domain.ErrValidation(formatValidationErrors(err))
	}
	if req.Email != req.ConfirmEmail {
		return domain.ErrBadRequest("emails do not match")
	}

	exists, err := s.users.Exists(ctx, req.Email)
	if err != nil {
		return domain.ErrInternal("failed to check email", err)
	}
	if exists {
		return domain.ErrBadRequest("email already registered")
	}

	if err := s.users.UpdateEmail(ctx, userID, req.Email); err != nil {
		return domain.ErrInternal("failed to update email", err)
	}
	return nil
}

// ChangePassword re-authenticates with the current password, checks the
// confirmation, and stores the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req *domain.ChangePasswordRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return domain.ErrValidation(formatValidationErrors(err))
	}
	if req.Password != req.ConfirmPassword {
		return domain.ErrBadRequest("passwords do not match")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return domain.ErrNotFound("user not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return domain.ErrUnauthenticated("current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.ErrInternal("failed to hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return domain.ErrInternal("failed to update password", err)
	}
	return nil
}
