package service

import (
	"context"
	"log"
	"time"

	"github.com/facelens/backend/internal/domain"
	"github.com/facelens/backend/internal/email"
	"github.com/facelens/backend/internal/metrics"
	"github.com/facelens/backend/pkg/payment"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MembershipService owns the membership lifecycle: trial start at signup,
// reconcile on login, subscribe, and cancel. It is the only code that mutates
// membership state, and every multi-row mutation runs inside one transaction.
// Gateway calls are always issued before the dependent local commit, so a
// provider failure never leaves local state ahead of the provider.
type MembershipService struct {
	users       userStore
	memberships membershipStore
	payments    paymentStore
	tx          txRunner
	gateway     payment.Gateway
	mail        *email.Mailer
	metrics     *metrics.Metrics
	planID      string
	validate    *validator.Validate
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(
	users userStore,
	memberships membershipStore,
	payments paymentStore,
	tx txRunner,
	gateway payment.Gateway,
	mail *email.Mailer,
	m *metrics.Metrics,
	planID string,
) *MembershipService {
	return &MembershipService{
		users:       users,
		memberships: memberships,
		payments:    payments,
		tx:          tx,
		gateway:     gateway,
		mail:        mail,
		metrics:     m,
		planID:      planID,
		validate:    validator.New(),
	}
}

// StartTrial creates the provider customer and then, in one transaction, the
// user row and its free-trial membership (now .. now+14d). A provider failure
// aborts the signup with no orphaned local rows. If the transaction fails
// after the customer was created, the provider-side customer is orphaned;
// that is a known limitation, not silently repaired.
func (s *MembershipService) StartTrial(ctx context.Context, emailAddr, passwordHash string) (*domain.User, error) {
	customerID, err := s.gateway.CreateCustomer(ctx, emailAddr)
	if err != nil {
		return nil, s.gatewayError("create_customer", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:                 domain.NewUserID(),
		Email:              emailAddr,
		Password:           passwordHash,
		ProviderCustomerID: customerID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	membership := &domain.Membership{
		UserID:    user.ID,
		Status:    domain.StatusFreeTrial,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, domain.TrialDays),
		UpdatedAt: now,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		return s.memberships.Create(ctx, membership)
	})
	if err != nil {
		return nil, domain.ErrInternal("failed to create account", err)
	}

	if s.mail != nil {
		if err := s.mail.SendWelcome(user.Email, domain.TrialDays); err != nil {
			log.Printf("welcome email to %s failed: %v", user.Email, err)
		}
	}
	return user, nil
}

// Reconcile refreshes local membership state after a successful login.
// Trial expiry is decided against wall-clock time; for members the gateway's
// subscription status wins over any cached local fields. Gateway failures are
// soft: the local record stays the source of truth until the next successful
// reconcile, and the failure is only visible to operators.
func (s *MembershipService) Reconcile(ctx context.Context, userID string) error {
	m, err := s.memberships.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return nil
	}

	switch m.Status {
	case domain.StatusFreeTrial:
		if m.EndDate.Before(time.Now()) {
			m.Status = domain.StatusNotMember
			if err := s.memberships.Update(ctx, m); err != nil {
				return err
			}
			s.metrics.TrialExpirationsTotal.Inc()
		}

	case domain.StatusMember:
		if m.ProviderSubscriptionID == nil {
			// Member with no subscription on record: trust local state,
			// surface the drift to operators.
			s.metrics.StateInconsistencies.Inc()
			log.Printf("reconcile: member %s has no provider subscription id", userID)
			return nil
		}
		sub, err := s.gateway.RetrieveSubscription(ctx, *m.ProviderSubscriptionID)
		if err != nil {
			s.metrics.ReconcileFailures.Inc()
			log.Printf("reconcile: gateway lookup failed for %s: %v", userID, err)
			return nil
		}
		if sub.Status == payment.StatusActive {
			m.EndDate = sub.PeriodEnd
		} else {
			// Provider says the subscription lapsed. The subscription ids are
			// kept on the row for audit.
			m.Status = domain.StatusNotMember
			s.metrics.StateInconsistencies.Inc()
			log.Printf("reconcile: provider reports %q for member %s, revoking membership", sub.Status, userID)
		}
		if err := s.memberships.Update(ctx, m); err != nil {
			return err
		}

	case domain.StatusNotMember:
		// Nothing to do.
	}
	return nil
}

// Subscribe purchases the fixed metered plan for the user. The provider
// subscription is created first; only then do the membership update and the
// payment ledger row commit, together. Any provider failure leaves local
// state untouched and maps to one of {card declined, provider error,
// unexpected error}.
func (s *MembershipService) Subscribe(ctx context.Context, userID string, req *domain.SubscribeRequest) (*domain.Payment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(formatValidationErrors(err))
	}

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

	customer, err := s.gateway.RetrieveCustomer(ctx, user.ProviderCustomerID)
	if err != nil {
		return nil, s.gatewayError("retrieve_customer", err)
	}
	if err := s.gateway.AttachPaymentMethod(ctx, customer.ID, req.PaymentToken); err != nil {
		return nil, s.gatewayError("attach_payment_method", err)
	}
	sub, err := s.gateway.CreateSubscription(ctx, customer.ID, s.planID)
	if err != nil {
		return nil, s.gatewayError("create_subscription", err)
	}

	now := time.Now()
	m.Status = domain.StatusMember
	m.StartDate = now
	m.EndDate = sub.PeriodEnd
	m.ProviderSubscriptionID = &sub.ID
	m.ProviderSubscriptionItemID = &sub.ItemID

	pay := &domain.Payment{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Amount:    float64(sub.PlanAmount) / 100, // minor units to major
		CreatedAt: now,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.memberships.Update(ctx, m); err != nil {
			return err
		}
		return s.payments.Create(ctx, pay)
	})
	if err != nil {
		return nil, domain.ErrInternal("failed to record subscription", err)
	}

	if s.mail != nil {
		if err := s.mail.SendReceipt(user.Email, pay.Amount); err != nil {
			log.Printf("receipt email to %s failed: %v", user.Email, err)
		}
	}
	return pay, nil
}

// Cancel deletes the provider subscription and, only on provider success,
// moves the membership to not_member. A trial that never subscribed has no
// provider subscription to cancel. Cancelling never restores a trial.
func (s *MembershipService) Cancel(ctx context.Context, userID string) error {
	m, err := s.memberships.FindByUserID(ctx, userID)
	if err != nil || m == nil {
		return domain.ErrInternal("failed to load membership", err)
	}
	if m.Status == domain.StatusNotMember {
		return domain.ErrNotAMember("must be a member to cancel")
	}
	if m.ProviderSubscriptionID == nil {
		return domain.ErrValidation("no active subscription")
	}

	if err := s.gateway.CancelSubscription(ctx, *m.ProviderSubscriptionID); err != nil {
		return s.gatewayError("cancel_subscription", err)
	}

	m.Status = domain.StatusNotMember
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.memberships.Update(ctx, m)
	})
	if err != nil {
		return domain.ErrInternal("failed to record cancellation", err)
	}
	return nil
}

// ExpireTrials applies the trial-expiry transition to every lapsed trial.
// Run daily by the scheduler; identical to what reconcile-on-login does, so
// it is idempotent and makes no gateway calls.
func (s *MembershipService) ExpireTrials(ctx context.Context) error {
	n, err := s.memberships.ExpireTrials(ctx, time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		s.metrics.TrialExpirationsTotal.Add(float64(n))
		log.Printf("trial sweep: expired %d memberships", n)
	}
	return nil
}

// Membership returns the caller's membership row.
func (s *MembershipService) Membership(ctx context.Context, userID string) (*domain.Membership, error) {
	m, err := s.memberships.FindByUserID(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load membership", err)
	}
	if m == nil {
		return nil, domain.ErrNotFound("membership not found")
	}
	return m, nil
}

// gatewayError converts a provider failure into the error taxonomy and
// counts it for operators. Raw gateway errors never cross this boundary.
func (s *MembershipService) gatewayError(op string, err error) error {
	s.metrics.GatewayErrorsTotal.WithLabelValues(op).Inc()
	switch payment.KindOf(err) {
	case payment.KindCardDeclined:
		return domain.ErrCardDeclined("your card was declined")
	case payment.KindProvider:
		return domain.ErrPaymentProvider("payment provider error, card was not billed", err)
	default:
		return domain.ErrInternal("unexpected payment provider failure", err)
	}
}
