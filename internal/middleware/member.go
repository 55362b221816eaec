package middleware

import (
	"context"
	"net/http"

	"github.com/facelens/backend/internal/contextkeys"
	"github.com/facelens/backend/internal/domain"
	"github.com/facelens/backend/internal/handler"
)

// MembershipLoader fetches a user's membership row. Satisfied by
// service.MembershipService.
type MembershipLoader interface {
	Membership(ctx context.Context, userID string) (*domain.Membership, error)
}

// RequireMember is the access-control policy for membership-gated endpoints:
// members and free-trial users pass, everyone else is denied. It is a pure
// predicate over stored state and never triggers reconciliation. Must be used
// AFTER Auth, which sets contextkeys.UserID.
//
// The loaded membership is stored in the request context so gated handlers do
// not look it up twice.
func RequireMember(memberships MembershipLoader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := r.Context().Value(contextkeys.UserID).(string)
			if !ok || userID == "" {
				handler.Error(w, domain.ErrUnauthenticated("must be logged in to make request"))
				return
			}

			m, err := memberships.Membership(r.Context(), userID)
			if err != nil {
				handler.Error(w, err)
				return
			}
			if !m.Status.IsMember() && !m.Status.OnFreeTrial() {
				handler.Error(w, domain.ErrNotAMember("must be a member to make request"))
				return
			}

			ctx := context.WithValue(r.Context(), contextkeys.Membership, m)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MembershipFrom extracts the membership stored by RequireMember.
func MembershipFrom(ctx context.Context) (*domain.Membership, bool) {
	m, ok := ctx.Value(contextkeys.Membership).(*domain.Membership)
	return m, ok
}
