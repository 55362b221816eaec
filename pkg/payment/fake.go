package payment

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeGateway is an in-memory Gateway used in tests and when no provider key
// is configured (local development). Every call succeeds unless an error is
// injected via the Fail* fields.
type FakeGateway struct {
	mu sync.Mutex

	FailCreateCustomer     error
	FailRetrieveCustomer   error
	FailAttach             error
	FailCreateSubscription error
	FailRetrieveSub        error
	FailCancel             error
	FailUsageRecord        error
	FailUpcomingInvoice    error

	// SubscriptionStatus is returned by RetrieveSubscription (default active).
	SubscriptionStatus string
	// PeriodEnd is the period end reported for created/retrieved subscriptions.
	PeriodEnd time.Time
	// PlanAmount is the minor-unit amount reported for created subscriptions.
	PlanAmount int64
	// InvoiceAmount is the minor-unit amount of the upcoming invoice.
	InvoiceAmount int64

	customers    int
	usageRecords int
	Canceled     []string
	UsageCalls   []int64
}

// NewFakeGateway returns a gateway that reports an active $20/mo subscription.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		SubscriptionStatus: StatusActive,
		PeriodEnd:          time.Now().AddDate(0, 1, 0),
		PlanAmount:         2000,
	}
}

func (g *FakeGateway) CreateCustomer(ctx context.Context, email string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailCreateCustomer != nil {
		return "", g.FailCreateCustomer
	}
	g.customers++
	return fmt.Sprintf("cus_fake_%d", g.customers), nil
}

func (g *FakeGateway) RetrieveCustomer(ctx context.Context, customerID string) (*Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailRetrieveCustomer != nil {
		return nil, g.FailRetrieveCustomer
	}
	return &Customer{ID: customerID}, nil
}

func (g *FakeGateway) AttachPaymentMethod(ctx context.Context, customerID, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.FailAttach
}

func (g *FakeGateway) CreateSubscription(ctx context.Context, customerID, planID string) (*Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailCreateSubscription != nil {
		return nil, g.FailCreateSubscription
	}
	return &Subscription{
		ID:         "sub_fake_1",
		ItemID:     "si_fake_1",
		Status:     StatusActive,
		PeriodEnd:  g.PeriodEnd,
		PlanAmount: g.PlanAmount,
	}, nil
}

func (g *FakeGateway) RetrieveSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailRetrieveSub != nil {
		return nil, g.FailRetrieveSub
	}
	return &Subscription{
		ID:        subscriptionID,
		ItemID:    "si_fake_1",
		Status:    g.SubscriptionStatus,
		PeriodEnd: g.PeriodEnd,
	}, nil
}

func (g *FakeGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailCancel != nil {
		return g.FailCancel
	}
	g.Canceled = append(g.Canceled, subscriptionID)
	return nil
}

func (g *FakeGateway) CreateUsageRecord(ctx context.Context, itemID string, quantity int64, ts int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailUsageRecord != nil {
		return "", g.FailUsageRecord
	}
	g.usageRecords++
	g.UsageCalls = append(g.UsageCalls, ts)
	return fmt.Sprintf("mbur_fake_%d", g.usageRecords), nil
}

func (g *FakeGateway) UpcomingInvoiceAmount(ctx context.Context, customerID string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailUpcomingInvoice != nil {
		return 0, g.FailUpcomingInvoice
	}
	return g.InvoiceAmount, nil
}

// UsageRecordCount reports how many usage records were created.
func (g *FakeGateway) UsageRecordCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.usageRecords
}
