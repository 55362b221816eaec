// Package vision wraps the external face-detection service. The detection
// algorithm itself is a remote collaborator; this package only defines the
// boundary and an HTTP client for it.
package vision

import (
	"context"
	"io"
)

// Box is one detected face's bounding box in pixel coordinates.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Result is the detection outcome for one image.
type Result struct {
	NumFaces int   `json:"numFaces"`
	Faces    []Box `json:"faces"`
}

// Detector analyzes an image and reports detected faces.
type Detector interface {
	Detect(ctx context.Context, image io.Reader, filename string) (*Result, error)
}
