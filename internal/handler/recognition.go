package handler

import (
	"net/http"

	"github.com/facelens/backend/internal/contextkeys"
	"github.com/facelens/backend/internal/domain"
	"github.com/facelens/backend/internal/service"
)

// maxImageBytes caps uploads at 5 MB.
const maxImageBytes = 5 * 1000 * 1000

// RecognitionHandler handles the image-recognition endpoints.
type RecognitionHandler struct {
	recognition *service.RecognitionService
}

// NewRecognitionHandler creates a new RecognitionHandler.
func NewRecognitionHandler(recognition *service.RecognitionService) *RecognitionHandler {
	return &RecognitionHandler{recognition: recognition}
}

// Recognize handles POST /api/recognition. The route is membership-gated and
// metered: usage is recorded before detection runs, charging the attempt.
func (h *RecognitionHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	m, ok := r.Context().Value(contextkeys.Membership).(*domain.Membership)
	if !ok {
		Error(w, domain.ErrNotAMember("must be a member to make request"))
		return
	}

	file, header, err := imageFromRequest(w, r)
	if err != nil {
		Error(w, err)
		return
	}
	defer file.Close()

	result, err := h.recognition.Recognize(r.Context(), m, file, header)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, result)
}

// Demo handles POST /api/demo: the same detection without auth or metering,
// protected by the demo throttle instead.
func (h *RecognitionHandler) Demo(w http.ResponseWriter, r *http.Request) {
	file, header, err := imageFromRequest(w, r)
	if err != nil {
		Error(w, err)
		return
	}
	defer file.Close()

	result, err := h.recognition.Demo(r.Context(), file, header)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, result)
}

type closableFile interface {
	Read(p []byte) (int, error)
	Close() error
}

// imageFromRequest extracts the uploaded "file" part, enforcing the size cap.
func imageFromRequest(w http.ResponseWriter, r *http.Request) (closableFile, string, error) {
	if r.ContentLength > maxImageBytes {
		return nil, "", domain.ErrBadRequest("file size larger than 5 megabytes")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		return nil, "", domain.ErrBadRequest("invalid multipart upload")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", domain.ErrBadRequest("missing file upload")
	}
	return file, header.Filename, nil
}
