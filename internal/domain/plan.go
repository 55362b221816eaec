package domain

// Plan describes the single metered subscription plan. The provider-side plan
// id comes from configuration; the price here is informational for the public
// plan endpoint (the billed amount is always taken from the provider's
// response when subscribing).
type Plan struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PriceCents      int64  `json:"priceCents"`      // base monthly price in minor units
	PerRequestCents int64  `json:"perRequestCents"` // metered price per API request in minor units
	TrialDays       int    `json:"trialDays"`
}

// DefaultPlan returns the plan advertised on the public plan endpoint.
func DefaultPlan(providerPlanID string) Plan {
	return Plan{
		ID:              providerPlanID,
		Name:            "Metered API",
		PriceCents:      2000, // $20/mo
		PerRequestCents: 5,
		TrialDays:       TrialDays,
	}
}
