package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.stripe.com"

// StripeGateway implements Gateway against the Stripe REST API using
// form-encoded requests, which is all the subset of endpoints here needs.
type StripeGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewStripeGateway creates a gateway authenticated with the given secret key.
func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{
		secretKey: secretKey,
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// NewStripeGatewayWithBaseURL is used by tests to point at a local server.
func NewStripeGatewayWithBaseURL(secretKey, baseURL string) *StripeGateway {
	g := NewStripeGateway(secretKey)
	g.baseURL = strings.TrimRight(baseURL, "/")
	return g
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type stripeCustomer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type stripeSubscription struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
	Items            struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	} `json:"items"`
	Plan struct {
		Amount int64 `json:"amount"`
	} `json:"plan"`
}

type stripeUsageRecord struct {
	ID string `json:"id"`
}

type stripeInvoice struct {
	AmountDue int64 `json:"amount_due"`
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, email string) (string, error) {
	form := url.Values{"email": {email}}
	var cust stripeCustomer
	if err := g.do(ctx, http.MethodPost, "/v1/customers", form, &cust); err != nil {
		return "", err
	}
	return cust.ID, nil
}

func (g *StripeGateway) RetrieveCustomer(ctx context.Context, customerID string) (*Customer, error) {
	var cust stripeCustomer
	if err := g.do(ctx, http.MethodGet, "/v1/customers/"+customerID, nil, &cust); err != nil {
		return nil, err
	}
	return &Customer{ID: cust.ID, Email: cust.Email}, nil
}

func (g *StripeGateway) AttachPaymentMethod(ctx context.Context, customerID, token string) error {
	form := url.Values{"source": {token}}
	var cust stripeCustomer
	return g.do(ctx, http.MethodPost, "/v1/customers/"+customerID, form, &cust)
}

func (g *StripeGateway) CreateSubscription(ctx context.Context, customerID, planID string) (*Subscription, error) {
	form := url.Values{
		"customer":       {customerID},
		"items[0][plan]": {planID},
	}
	var sub stripeSubscription
	if err := g.do(ctx, http.MethodPost, "/v1/subscriptions", form, &sub); err != nil {
		return nil, err
	}
	out := &Subscription{
		ID:         sub.ID,
		Status:     sub.Status,
		PeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0),
		PlanAmount: sub.Plan.Amount,
	}
	if len(sub.Items.Data) > 0 {
		out.ItemID = sub.Items.Data[0].ID
	}
	if out.ItemID == "" {
		return nil, &Error{Kind: KindUnexpected, Message: "subscription response missing item id"}
	}
	return out, nil
}

func (g *StripeGateway) RetrieveSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	var sub stripeSubscription
	if err := g.do(ctx, http.MethodGet, "/v1/subscriptions/"+subscriptionID, nil, &sub); err != nil {
		return nil, err
	}
	out := &Subscription{
		ID:         sub.ID,
		Status:     sub.Status,
		PeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0),
		PlanAmount: sub.Plan.Amount,
	}
	if len(sub.Items.Data) > 0 {
		out.ItemID = sub.Items.Data[0].ID
	}
	return out, nil
}

func (g *StripeGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	var sub stripeSubscription
	return g.do(ctx, http.MethodDelete, "/v1/subscriptions/"+subscriptionID, nil, &sub)
}

func (g *StripeGateway) CreateUsageRecord(ctx context.Context, itemID string, quantity int64, ts int64) (string, error) {
	form := url.Values{
		"quantity":  {strconv.FormatInt(quantity, 10)},
		"timestamp": {strconv.FormatInt(ts, 10)},
		"action":    {"increment"},
	}
	var rec stripeUsageRecord
	path := "/v1/subscription_items/" + itemID + "/usage_records"
	if err := g.do(ctx, http.MethodPost, path, form, &rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (g *StripeGateway) UpcomingInvoiceAmount(ctx context.Context, customerID string) (int64, error) {
	var inv stripeInvoice
	path := "/v1/invoices/upcoming?customer=" + url.QueryEscape(customerID)
	if err := g.do(ctx, http.MethodGet, path, nil, &inv); err != nil {
		return 0, err
	}
	return inv.AmountDue, nil
}

// do issues one request and decodes the JSON response into out. Stripe error
// payloads are classified into the Error kinds the services distinguish.
func (g *StripeGateway) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return &Error{Kind: KindUnexpected, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return &Error{Kind: KindUnexpected, Message: "payment provider unreachable", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Kind: KindUnexpected, Message: "failed to read provider response", Err: err}
	}

	if resp.StatusCode >= 400 {
		return classifyError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindUnexpected, Message: "malformed provider response", Err: err}
	}
	return nil
}

func classifyError(status int, data []byte) error {
	var se stripeError
	if err := json.Unmarshal(data, &se); err != nil || se.Error.Type == "" {
		return &Error{
			Kind:    KindUnexpected,
			Message: fmt.Sprintf("provider returned HTTP %d", status),
		}
	}
	kind := KindProvider
	if se.Error.Type == "card_error" {
		kind = KindCardDeclined
	}
	return &Error{Kind: kind, Code: se.Error.Code, Message: se.Error.Message}
}
