package service

import (
	"context"
	"io"

	"github.com/facelens/backend/internal/domain"
	"github.com/facelens/backend/pkg/vision"
)

// EndpointRecognition is the endpoint identifier stored on tracked requests.
const EndpointRecognition = "/api/recognition"

// RecognitionService runs the membership-gated image recognition endpoint:
// metering first, then the detection call. Usage is billed per attempt, so a
// detection failure after metering does not refund the usage record.
type RecognitionService struct {
	metering *MeteringService
	detector vision.Detector
}

// NewRecognitionService creates a new RecognitionService.
func NewRecognitionService(metering *MeteringService, detector vision.Detector) *RecognitionService {
	return &RecognitionService{metering: metering, detector: detector}
}

// Recognize meters the call for the given membership and then detects faces
// in the uploaded image.
func (s *RecognitionService) Recognize(ctx context.Context, m *domain.Membership, image io.Reader, filename string) (*vision.Result, error) {
	if _, err := s.metering.Record(ctx, m, EndpointRecognition); err != nil {
		return nil, err
	}

	result, err := s.detector.Detect(ctx, image, filename)
	if err != nil {
		return nil, domain.ErrInternal("image recognition failed", err)
	}
	return result, nil
}

// Demo detects faces without authentication or metering. The route is
// throttled instead.
func (s *RecognitionService) Demo(ctx context.Context, image io.Reader, filename string) (*vision.Result, error) {
	result, err := s.detector.Detect(ctx, image, filename)
	if err != nil {
		return nil, domain.ErrInternal("image recognition failed", err)
	}
	return result, nil
}
