package service

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/facelens/backend/internal/domain"
	"github.com/facelens/backend/internal/metrics"
	"github.com/facelens/backend/pkg/payment"
	"github.com/google/uuid"
)

// MeteringService records one tracked request per metered API call, mirroring
// billable usage to the payment provider. Usage is charged for the attempt,
// not the outcome: callers invoke Record before their business logic, and a
// downstream failure does not undo the charge.
type MeteringService struct {
	tracked trackedRequestStore
	gateway payment.Gateway
	metrics *metrics.Metrics
}

// NewMeteringService creates a new MeteringService.
func NewMeteringService(tracked trackedRequestStore, gateway payment.Gateway, m *metrics.Metrics) *MeteringService {
	return &MeteringService{tracked: tracked, gateway: gateway, metrics: m}
}

// Record meters one call to the given endpoint. A call is billable only for
// paying members; trial usage (and, defensively, anything that slipped past
// the membership gate) is tracked locally with no provider record.
func (s *MeteringService) Record(ctx context.Context, m *domain.Membership, endpoint string) (*domain.TrackedRequest, error) {
	billable := m.Billable()

	var usageRecordID *string
	if billable {
		if m.ProviderSubscriptionItemID == nil {
			// Paying member without a subscription item on record: track the
			// call locally and surface the drift instead of failing the user.
			s.metrics.StateInconsistencies.Inc()
			log.Printf("metering: member %s has no subscription item id", m.UserID)
			billable = false
		} else {
			// Whole seconds only; the provider rejects sub-second timestamps.
			ts := time.Now().Unix()
			id, err := s.gateway.CreateUsageRecord(ctx, *m.ProviderSubscriptionItemID, 1, ts)
			if err != nil {
				s.metrics.GatewayErrorsTotal.WithLabelValues("create_usage_record").Inc()
				if payment.KindOf(err) == payment.KindProvider {
					return nil, domain.ErrPaymentProvider("failed to meter request", err)
				}
				return nil, domain.ErrInternal("failed to meter request", err)
			}
			usageRecordID = &id
		}
	}

	tr := &domain.TrackedRequest{
		ID:            uuid.New().String(),
		UserID:        m.UserID,
		Endpoint:      endpoint,
		UsageRecordID: usageRecordID,
		CreatedAt:     time.Now(),
	}
	if err := s.tracked.Create(ctx, tr); err != nil {
		return nil, domain.ErrInternal("failed to track request", err)
	}

	s.metrics.MeteredRequestsTotal.WithLabelValues(strconv.FormatBool(billable)).Inc()
	return tr, nil
}
