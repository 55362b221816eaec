package service

import (
	"context"
	"errors"
	"time"

	"github.com/facelens/backend/internal/domain"
)

// In-memory implementations of the store interfaces. They copy rows on the
// way in and out so a service mutating a returned struct cannot touch stored
// state without calling Update.

type fakeUsers struct {
	rows       map[string]*domain.User
	failCreate error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: map[string]*domain.User{}}
}

func (f *fakeUsers) Create(ctx context.Context, u *domain.User) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	cp := *u
	f.rows[u.ID] = &cp
	return nil
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Exists(ctx context.Context, email string) (bool, error) {
	u, _ := f.FindByEmail(ctx, email)
	return u != nil, nil
}

func (f *fakeUsers) UpdateEmail(ctx context.Context, id, email string) error {
	u, ok := f.rows[id]
	if !ok {
		return errors.New("no such user")
	}
	u.Email = email
	return nil
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, id, hash string) error {
	u, ok := f.rows[id]
	if !ok {
		return errors.New("no such user")
	}
	u.Password = hash
	return nil
}

type fakeMemberships struct {
	rows       map[string]*domain.Membership
	updates    int
	failUpdate error
}

func newFakeMemberships() *fakeMemberships {
	return &fakeMemberships{rows: map[string]*domain.Membership{}}
}

func (f *fakeMemberships) Create(ctx context.Context, m *domain.Membership) error {
	cp := *m
	f.rows[m.UserID] = &cp
	return nil
}

func (f *fakeMemberships) FindByUserID(ctx context.Context, userID string) (*domain.Membership, error) {
	m, ok := f.rows[userID]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMemberships) Update(ctx context.Context, m *domain.Membership) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	cp := *m
	f.rows[m.UserID] = &cp
	f.updates++
	return nil
}

func (f *fakeMemberships) ExpireTrials(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, m := range f.rows {
		if m.Status == domain.StatusFreeTrial && m.EndDate.Before(now) {
			m.Status = domain.StatusNotMember
			n++
		}
	}
	return n, nil
}

type fakePayments struct {
	rows []*domain.Payment
}

func (f *fakePayments) Create(ctx context.Context, p *domain.Payment) error {
	cp := *p
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakePayments) ListByUserID(ctx context.Context, userID string) ([]*domain.Payment, error) {
	var out []*domain.Payment
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID {
			cp := *f.rows[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeTracked struct {
	rows       []*domain.TrackedRequest
	failCreate error
}

func (f *fakeTracked) Create(ctx context.Context, t *domain.TrackedRequest) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	cp := *t
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeTracked) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var n int64
	for _, t := range f.rows {
		if t.UserID == userID && !t.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// fakeTx runs the function directly; there is no transaction to roll back, so
// tests assert on store contents instead.
type fakeTx struct {
	calls int
	err   error
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}
