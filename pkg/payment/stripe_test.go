package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, h http.HandlerFunc) *StripeGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewStripeGatewayWithBaseURL("sk_test_123", srv.URL)
}

func TestCreateCustomerSendsForm(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/customers", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "ada@example.com", r.FormValue("email"))
		w.Write([]byte(`{"id":"cus_123","email":"ada@example.com"}`))
	})

	id, err := g.CreateCustomer(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_123", id)
}

func TestCreateSubscriptionParsesResponse(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/subscriptions", r.URL.Path)
		assert.Equal(t, "cus_123", r.FormValue("customer"))
		assert.Equal(t, "plan_metered", r.FormValue("items[0][plan]"))
		w.Write([]byte(`{
			"id": "sub_123",
			"status": "active",
			"current_period_end": 1767225600,
			"items": {"data": [{"id": "si_456"}]},
			"plan": {"amount": 2000}
		}`))
	})

	sub, err := g.CreateSubscription(context.Background(), "cus_123", "plan_metered")
	require.NoError(t, err)
	assert.Equal(t, "sub_123", sub.ID)
	assert.Equal(t, "si_456", sub.ItemID)
	assert.Equal(t, StatusActive, sub.Status)
	assert.Equal(t, int64(2000), sub.PlanAmount)
	assert.True(t, sub.PeriodEnd.Equal(time.Unix(1767225600, 0)))
}

func TestCreateSubscriptionMissingItemID(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"sub_123","status":"active","items":{"data":[]}}`))
	})

	_, err := g.CreateSubscription(context.Background(), "cus_123", "plan_metered")
	require.Error(t, err)
	assert.Equal(t, KindUnexpected, KindOf(err))
}

func TestCardErrorClassification(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	})

	_, err := g.CreateSubscription(context.Background(), "cus_123", "plan_metered")
	require.Error(t, err)
	assert.Equal(t, KindCardDeclined, KindOf(err))

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "card_declined", gwErr.Code)
}

func TestProviderErrorClassification(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such customer"}}`))
	})

	_, err := g.RetrieveCustomer(context.Background(), "cus_nope")
	require.Error(t, err)
	assert.Equal(t, KindProvider, KindOf(err))
}

func TestUnstructuredErrorClassification(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream timeout"))
	})

	_, err := g.RetrieveCustomer(context.Background(), "cus_123")
	require.Error(t, err)
	assert.Equal(t, KindUnexpected, KindOf(err))
}

func TestUnreachableProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	g := NewStripeGatewayWithBaseURL("sk_test_123", srv.URL)

	_, err := g.CreateCustomer(context.Background(), "ada@example.com")
	require.Error(t, err)
	assert.Equal(t, KindUnexpected, KindOf(err))
}

func TestCreateUsageRecordForm(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/subscription_items/si_456/usage_records", r.URL.Path)
		assert.Equal(t, "1", r.FormValue("quantity"))
		assert.Equal(t, "1767225600", r.FormValue("timestamp"))
		assert.Equal(t, "increment", r.FormValue("action"))
		w.Write([]byte(`{"id":"mbur_789"}`))
	})

	id, err := g.CreateUsageRecord(context.Background(), "si_456", 1, 1767225600)
	require.NoError(t, err)
	assert.Equal(t, "mbur_789", id)
}

func TestUpcomingInvoiceAmount(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/invoices/upcoming", r.URL.Path)
		assert.Equal(t, "cus_123", r.URL.Query().Get("customer"))
		w.Write([]byte(`{"amount_due":1234}`))
	})

	amount, err := g.UpcomingInvoiceAmount(context.Background(), "cus_123")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), amount)
}

func TestCancelSubscription(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v1/subscriptions/sub_123", r.URL.Path)
		w.Write([]byte(`{"id":"sub_123","status":"canceled"}`))
	})

	require.NoError(t, g.CancelSubscription(context.Background(), "sub_123"))
}
