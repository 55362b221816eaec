package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/facelens/backend/internal/domain"
	"github.com/facelens/backend/internal/metrics"
	"github.com/facelens/backend/pkg/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type membershipFixture struct {
	svc     *MembershipService
	users   *fakeUsers
	members *fakeMemberships
	pays    *fakePayments
	tx      *fakeTx
	gateway *payment.FakeGateway
}

func newMembershipFixture() *membershipFixture {
	f := &membershipFixture{
		users:   newFakeUsers(),
		members: newFakeMemberships(),
		pays:    &fakePayments{},
		tx:      &fakeTx{},
		gateway: payment.NewFakeGateway(),
	}
	f.svc = NewMembershipService(f.users, f.members, f.pays, f.tx, f.gateway, nil, metrics.New(), "plan_test")
	return f
}

func (f *membershipFixture) seedTrialUser(id string) {
	now := time.Now()
	f.users.rows[id] = &domain.User{
		ID:                 id,
		Email:              id + "@example.com",
		ProviderCustomerID: "cus_" + id,
		CreatedAt:          now,
	}
	f.members.rows[id] = &domain.Membership{
		UserID:    id,
		Status:    domain.StatusFreeTrial,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, domain.TrialDays),
		UpdatedAt: now,
	}
}

func (f *membershipFixture) seedMemberUser(id string) {
	f.seedTrialUser(id)
	m := f.members.rows[id]
	m.Status = domain.StatusMember
	subID := "sub_" + id
	itemID := "si_" + id
	m.ProviderSubscriptionID = &subID
	m.ProviderSubscriptionItemID = &itemID
}

func reasonOf(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Reason
}

func TestStartTrialGrantsFourteenDays(t *testing.T) {
	f := newMembershipFixture()

	user, err := f.svc.StartTrial(context.Background(), "ada@example.com", "hash")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	assert.Equal(t, "cus_fake_1", user.ProviderCustomerID)

	m := f.members.rows[user.ID]
	require.NotNil(t, m)
	assert.Equal(t, domain.StatusFreeTrial, m.Status)
	assert.True(t, m.EndDate.Equal(m.StartDate.AddDate(0, 0, 14)),
		"trial must end exactly 14 days after it starts")
}

func TestStartTrialProviderFailureCreatesNothing(t *testing.T) {
	f := newMembershipFixture()
	f.gateway.FailCreateCustomer = &payment.Error{Kind: payment.KindProvider, Message: "provider down"}

	_, err := f.svc.StartTrial(context.Background(), "ada@example.com", "hash")
	require.Error(t, err)
	assert.Equal(t, domain.ReasonPaymentProvider, reasonOf(t, err))
	assert.Empty(t, f.users.rows)
	assert.Empty(t, f.members.rows)
	assert.Zero(t, f.tx.calls)
}

func TestReconcileExpiresLapsedTrial(t *testing.T) {
	f := newMembershipFixture()
	f.seedTrialUser("u1")
	f.members.rows["u1"].EndDate = time.Now().Add(-time.Hour)

	require.NoError(t, f.svc.Reconcile(context.Background(), "u1"))
	assert.Equal(t, domain.StatusNotMember, f.members.rows["u1"].Status)
	assert.Equal(t, 1, f.members.updates)

	// Expiry is a one-way transition; reconciling again changes nothing.
	require.NoError(t, f.svc.Reconcile(context.Background(), "u1"))
	assert.Equal(t, domain.StatusNotMember, f.members.rows["u1"].Status)
	assert.Equal(t, 1, f.members.updates)
}

func TestReconcileKeepsCurrentTrial(t *testing.T) {
	f := newMembershipFixture()
	f.seedTrialUser("u1")

	require.NoError(t, f.svc.Reconcile(context.Background(), "u1"))
	assert.Equal(t, domain.StatusFreeTrial, f.members.rows["u1"].Status)
	assert.Zero(t, f.members.updates)
}

func TestReconcileRefreshesActiveMember(t *testing.T) {
	f := newMembershipFixture()
	f.seedMemberUser("u1")
	periodEnd := time.Now().AddDate(0, 1, 0).Truncate(time.Second)
	f.gateway.PeriodEnd = periodEnd

	require.NoError(t, f.svc.Reconcile(context.Background(), "u1"))
	m := f.members.rows["u1"]
	assert.Equal(t, domain.StatusMember, m.Status)
	assert.True(t, m.EndDate.Equal(periodEnd))
}

func TestReconcileRevokesLapsedSubscription(t *testing.T) {
	f := newMembershipFixture()
	f.seedMemberUser("u1")
	f.gateway.SubscriptionStatus = "canceled"

	require.NoError(t, f.svc.Reconcile(context.Background(), "u1"))
	m := f.members.rows["u1"]
	assert.Equal(t, domain.StatusNotMember, m.Status)
	// Subscription ids stay on the row for audit.
	assert.NotNil(t, m.ProviderSubscriptionID)
	assert.NotNil(t, m.ProviderSubscriptionItemID)
}

func TestReconcileGatewayFailureIsSoft(t *testing.T) {
	f := newMembershipFixture()
	f.seedMemberUser("u1")
	before := *f.members.rows["u1"]
	f.gateway.FailRetrieveSub = errors.New("connection refused")

	require.NoError(t, f.svc.Reconcile(context.Background(), "u1"))
	assert.Equal(t, before.Status, f.members.rows["u1"].Status)
	assert.Zero(t, f.members.updates)
}

func TestReconcileMissingMembershipIsNoOp(t *testing.T) {
	f := newMembershipFixture()
	require.NoError(t, f.svc.Reconcile(context.Background(), "nobody"))
}

func TestSubscribeRecordsPaymentInMajorUnits(t *testing.T) {
	f := newMembershipFixture()
	f.seedTrialUser("u1")

	pay, err := f.svc.Subscribe(context.Background(), "u1", &domain.SubscribeRequest{PaymentToken: "tok_visa"})
	require.NoError(t, err)
	assert.Equal(t, 20.0, pay.Amount, "2000 cents must be recorded as 20.00")
	assert.Equal(t, "u1", pay.UserID)

	m := f.members.rows["u1"]
	assert.Equal(t, domain.StatusMember, m.Status)
	require.NotNil(t, m.ProviderSubscriptionID)
	require.NotNil(t, m.ProviderSubscriptionItemID)
	assert.Equal(t, "sub_fake_1", *m.ProviderSubscriptionID)
	assert.Equal(t, "si_fake_1", *m.ProviderSubscriptionItemID)
	assert.True(t, m.EndDate.Equal(f.gateway.PeriodEnd))
	assert.Len(t, f.pays.rows, 1)
}

func TestSubscribeProviderFailureLeavesStateUntouched(t *testing.T) {
	f := newMembershipFixture()
	f.seedTrialUser("u1")
	before := *f.members.rows["u1"]
	f.gateway.FailCreateSubscription = &payment.Error{Kind: payment.KindCardDeclined, Code: "card_declined"}

	_, err := f.svc.Subscribe(context.Background(), "u1", &domain.SubscribeRequest{PaymentToken: "tok_visa"})
	require.Error(t, err)
	assert.Equal(t, domain.ReasonCardDeclined, reasonOf(t, err))

	assert.Equal(t, before.Status, f.members.rows["u1"].Status)
	assert.Empty(t, f.pays.rows)
	assert.Zero(t, f.tx.calls)
}

func TestSubscribeErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name       string
		inject     error
		wantReason string
	}{
		{"card declined", &payment.Error{Kind: payment.KindCardDeclined}, domain.ReasonCardDeclined},
		{"provider error", &payment.Error{Kind: payment.KindProvider}, domain.ReasonPaymentProvider},
		{"transport failure", errors.New("EOF"), domain.ReasonUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMembershipFixture()
			f.seedTrialUser("u1")
			f.gateway.FailCreateSubscription = tt.inject

			_, err := f.svc.Subscribe(context.Background(), "u1", &domain.SubscribeRequest{PaymentToken: "tok_visa"})
			require.Error(t, err)
			assert.Equal(t, tt.wantReason, reasonOf(t, err))
		})
	}
}

func TestSubscribeRequiresPaymentToken(t *testing.T) {
	f := newMembershipFixture()
	f.seedTrialUser("u1")

	_, err := f.svc.Subscribe(context.Background(), "u1", &domain.SubscribeRequest{})
	require.Error(t, err)
	assert.Equal(t, domain.ReasonValidation, reasonOf(t, err))
}

func TestCancelMovesMembershipToNotMember(t *testing.T) {
	f := newMembershipFixture()
	f.seedMemberUser("u1")

	require.NoError(t, f.svc.Cancel(context.Background(), "u1"))
	assert.Equal(t, domain.StatusNotMember, f.members.rows["u1"].Status)
	assert.Equal(t, []string{"sub_u1"}, f.gateway.Canceled)
}

func TestCancelGatewayFailureKeepsMembership(t *testing.T) {
	f := newMembershipFixture()
	f.seedMemberUser("u1")
	f.gateway.FailCancel = &payment.Error{Kind: payment.KindProvider}

	err := f.svc.Cancel(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, domain.ReasonPaymentProvider, reasonOf(t, err))
	assert.Equal(t, domain.StatusMember, f.members.rows["u1"].Status)
	assert.Zero(t, f.members.updates)
}

func TestCancelWithoutProviderSubscription(t *testing.T) {
	f := newMembershipFixture()
	f.seedTrialUser("trial")
	f.seedTrialUser("lapsed")
	f.members.rows["lapsed"].Status = domain.StatusNotMember

	err := f.svc.Cancel(context.Background(), "trial")
	require.Error(t, err)
	assert.Equal(t, domain.ReasonValidation, reasonOf(t, err))

	err = f.svc.Cancel(context.Background(), "lapsed")
	require.Error(t, err)
	assert.Equal(t, domain.ReasonNotAMember, reasonOf(t, err))
}

func TestExpireTrialsSweep(t *testing.T) {
	f := newMembershipFixture()
	f.seedTrialUser("lapsed1")
	f.seedTrialUser("lapsed2")
	f.seedTrialUser("current")
	f.seedMemberUser("member")
	f.members.rows["lapsed1"].EndDate = time.Now().Add(-time.Hour)
	f.members.rows["lapsed2"].EndDate = time.Now().Add(-48 * time.Hour)

	require.NoError(t, f.svc.ExpireTrials(context.Background()))
	assert.Equal(t, domain.StatusNotMember, f.members.rows["lapsed1"].Status)
	assert.Equal(t, domain.StatusNotMember, f.members.rows["lapsed2"].Status)
	assert.Equal(t, domain.StatusFreeTrial, f.members.rows["current"].Status)
	assert.Equal(t, domain.StatusMember, f.members.rows["member"].Status)

	// Running the sweep again is a no-op.
	require.NoError(t, f.svc.ExpireTrials(context.Background()))
	assert.Equal(t, domain.StatusNotMember, f.members.rows["lapsed1"].Status)
}
