package service

import (
	"context"
	"time"

	"github.com/facelens/backend/internal/domain"
	"github.com/facelens/backend/internal/metrics"
	"github.com/facelens/backend/pkg/payment"
)

// BillingService is the read-only account/billing aggregation. It never
// mutates state.
type BillingService struct {
	users       userStore
	memberships membershipStore
	tracked     trackedRequestStore
	payments    paymentStore
	gateway     payment.Gateway
	metrics     *metrics.Metrics
}

// NewBillingService creates a new BillingService.
func NewBillingService(
	users userStore,
	memberships membershipStore,
	tracked trackedRequestStore,
	payments paymentStore,
	gateway payment.Gateway,
	m *metrics.Metrics,
) *BillingService {
	return &BillingService{
		users:       users,
		memberships: memberships,
		tracked:     tracked,
		payments:    payments,
		gateway:     gateway,
		metrics:     m,
	}
}

// Summary returns the membership label, trial/period end, the calendar
// month-to-date request count, and (for members only) the upcoming invoice
// amount converted to major units. A gateway failure fails the whole query
// rather than reporting a stale zero.
func (s *BillingService) Summary(ctx context.Context, userID string) (*domain.BillingSummary, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user not found")
	}
	m, err := s.memberships.FindByUserID(ctx, userID)
	if err != nil || m == nil {
		return nil, domain.ErrInternal("failed to load membership", err)
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	count, err := s.tracked.CountSince(ctx, userID, monthStart)
	if err != nil {
		return nil, domain.ErrInternal("failed to count requests", err)
	}

	var amountDue float64
	if m.Status.IsMember() {
		minor, err := s.gateway.UpcomingInvoiceAmount(ctx, user.ProviderCustomerID)
		if err != nil {
			s.metrics.GatewayErrorsTotal.WithLabelValues("upcoming_invoice").Inc()
			return nil, domain.ErrPaymentProvider("failed to fetch upcoming invoice", err)
		}
		amountDue = float64(minor) / 100
	}

	return &domain.BillingSummary{
		MembershipType:  m.Status.Label(),
		EndDate:         m.EndDate,
		APIRequestCount: count,
		AmountDue:       amountDue,
	}, nil
}

// Payments returns the caller's payment ledger, newest first.
func (s *BillingService) Payments(ctx context.Context, userID string) ([]*domain.Payment, error) {
	payments, err := s.payments.ListByUserID(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list payments", err)
	}
	if payments == nil {
		payments = []*domain.Payment{}
	}
	return payments, nil
}
