package domain

import "time"

// MembershipStatus is the single source of truth for a user's membership
// state. The legacy is_member / on_free_trial flags are derived views and are
// never stored, so they cannot fall out of sync with each other.
type MembershipStatus string

const (
	StatusFreeTrial MembershipStatus = "free_trial"
	StatusMember    MembershipStatus = "member"
	StatusNotMember MembershipStatus = "not_member"
)

// TrialDays is the length of the free trial granted on signup.
const TrialDays = 14

// Valid reports whether s is one of the three known states.
func (s MembershipStatus) Valid() bool {
	switch s {
	case StatusFreeTrial, StatusMember, StatusNotMember:
		return true
	}
	return false
}

// IsMember is the derived view of the legacy is_member flag.
func (s MembershipStatus) IsMember() bool { return s == StatusMember }

// OnFreeTrial is the derived view of the legacy on_free_trial flag.
func (s MembershipStatus) OnFreeTrial() bool { return s == StatusFreeTrial }

// Label returns the human-readable membership type for API responses.
func (s MembershipStatus) Label() string {
	switch s {
	case StatusFreeTrial:
		return "Free Trial"
	case StatusMember:
		return "Member"
	default:
		return "Not Member"
	}
}

// Membership is the one-to-one billing state attached to a user. Only the
// membership service mutates it, and only inside a transaction.
type Membership struct {
	UserID                     string           `json:"userId"`
	Status                     MembershipStatus `json:"status"`
	StartDate                  time.Time        `json:"startDate"`
	EndDate                    time.Time        `json:"endDate"`
	ProviderSubscriptionID     *string          `json:"-"`
	ProviderSubscriptionItemID *string          `json:"-"`
	UpdatedAt                  time.Time        `json:"updatedAt"`
}

// Billable reports whether a metered call by this membership should be
// mirrored to the payment provider. Free-trial usage is tracked locally only.
func (m *Membership) Billable() bool {
	return m.Status.IsMember() && !m.Status.OnFreeTrial()
}

// MembershipView is the API representation with the derived flags included.
type MembershipView struct {
	Status      MembershipStatus `json:"status"`
	Label       string           `json:"membershipType"`
	IsMember    bool             `json:"isMember"`
	OnFreeTrial bool             `json:"onFreeTrial"`
	StartDate   time.Time        `json:"startDate"`
	EndDate     time.Time        `json:"endDate"`
}

// View derives the edge representation from the stored enum.
func (m *Membership) View() MembershipView {
	return MembershipView{
		Status:      m.Status,
		Label:       m.Status.Label(),
		IsMember:    m.Status.IsMember(),
		OnFreeTrial: m.Status.OnFreeTrial(),
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
	}
}
