package domain

import "time"

// Payment is one row of the append-only payment ledger, created exactly once
// per successful subscription purchase. Amount is stored in major currency
// units (dollars, not cents).
type Payment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"timestamp"`
}

// TrackedRequest is one row of the append-only usage log. UsageRecordID is
// nil when the call was not billable (free-trial usage).
type TrackedRequest struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Endpoint      string    `json:"endpoint"`
	UsageRecordID *string   `json:"usageRecordId,omitempty"`
	CreatedAt     time.Time `json:"timestamp"`
}

// SubscribeRequest carries the payment method token collected client-side.
type SubscribeRequest struct {
	PaymentToken string `json:"paymentToken" validate:"required"`
}

// BillingSummary is the read-only account/billing aggregation.
type BillingSummary struct {
	MembershipType  string    `json:"membershipType"`
	EndDate         time.Time `json:"endDate"`
	APIRequestCount int64     `json:"apiRequestCount"`
	AmountDue       float64   `json:"amountDue"`
}
