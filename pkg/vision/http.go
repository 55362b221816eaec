package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// HTTPDetector posts images to a detection service and decodes its JSON
// response.
type HTTPDetector struct {
	url    string
	client *http.Client
}

// NewHTTPDetector creates a detector for the given service URL.
func NewHTTPDetector(url string) *HTTPDetector {
	return &HTTPDetector{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (d *HTTPDetector) Detect(ctx context.Context, image io.Reader, filename string) (*Result, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to buffer image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detection service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detection service returned HTTP %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("malformed detection response: %w", err)
	}
	return &result, nil
}

// StubDetector reports zero faces for every image. Used in tests and when no
// detection service is configured.
type StubDetector struct{}

func (StubDetector) Detect(ctx context.Context, image io.Reader, filename string) (*Result, error) {
	// Drain the image so callers can treat the stub like the real client.
	if _, err := io.Copy(io.Discard, image); err != nil {
		return nil, err
	}
	return &Result{NumFaces: 0, Faces: []Box{}}, nil
}
