package payment

import (
	"context"
	"errors"
	"time"
)

// Customer is the provider-side customer record.
type Customer struct {
	ID    string
	Email string
}

// Subscription is the provider-side subscription state the backend cares
// about. PlanAmount is in minor currency units (cents).
type Subscription struct {
	ID         string
	ItemID     string
	Status     string
	PeriodEnd  time.Time
	PlanAmount int64
}

// StatusActive is the only provider subscription status that keeps a
// membership alive during reconciliation.
const StatusActive = "active"

// Gateway defines the payment provider boundary. All calls are synchronous
// and network-bound; callers must issue them before committing any local
// state that depends on their result.
//
// None of the mutating calls carry client-generated idempotency keys, so
// retrying CreateSubscription or CreateUsageRecord after a timeout risks
// duplicate billing. Failures are surfaced to the caller, never retried here.
type Gateway interface {
	// CreateCustomer registers a customer for the given email.
	CreateCustomer(ctx context.Context, email string) (string, error)
	// RetrieveCustomer fetches an existing customer.
	RetrieveCustomer(ctx context.Context, customerID string) (*Customer, error)
	// AttachPaymentMethod attaches a tokenized payment method to a customer.
	AttachPaymentMethod(ctx context.Context, customerID, token string) error
	// CreateSubscription subscribes a customer to a plan.
	CreateSubscription(ctx context.Context, customerID, planID string) (*Subscription, error)
	// RetrieveSubscription fetches current status and period end.
	RetrieveSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	// CancelSubscription deletes an active subscription.
	CancelSubscription(ctx context.Context, subscriptionID string) error
	// CreateUsageRecord reports one unit of metered usage for a subscription
	// item. The timestamp is a Unix time in whole seconds.
	CreateUsageRecord(ctx context.Context, itemID string, quantity int64, ts int64) (string, error)
	// UpcomingInvoiceAmount returns the customer's next invoice total in
	// minor currency units.
	UpcomingInvoiceAmount(ctx context.Context, customerID string) (int64, error)
}

// ErrorKind classifies gateway failures into the three cases callers must
// distinguish.
type ErrorKind int

const (
	// KindCardDeclined means the customer's card was declined.
	KindCardDeclined ErrorKind = iota
	// KindProvider means the provider returned a structured error.
	KindProvider
	// KindUnexpected covers transport failures and malformed responses.
	KindUnexpected
)

// Error is a classified gateway failure.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "payment gateway error"
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf classifies err, defaulting to KindUnexpected for anything that is
// not a gateway *Error.
func KindOf(err error) ErrorKind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindUnexpected
}
