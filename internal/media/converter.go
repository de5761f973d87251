// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package media defines the image conversion contract consumed by the
// upload path.
//
// # Boundary
//
// The actual resize/encode implementation is an external collaborator; this
// package only fixes its input/output contract so that services and tests
// can depend on a stable interface.
package media

import "context"

// Conversion contract: every page stored in a draft is a WebP no wider than
// MaxPageWidth, encoded at WebpQuality.
const (
	// MaxPageWidth is the fixed maximum width in pixels.
	MaxPageWidth = 1200

	// WebpQuality is the fixed WebP encoder quality.
	WebpQuality = 77

	// ContentTypeWebp is the content type of every converted page.
	ContentTypeWebp = "image/webp"
)

// PageConverter converts an uploaded page image into the canonical WebP form.
type PageConverter interface {
	// ConvertPageToWebp re-encodes the input image bytes as WebP, downscaling
	// to at most MaxPageWidth. The input format is detected from the bytes.
	ConvertPageToWebp(ctx context.Context, data []byte) ([]byte, error)
}

// NopConverter stores pages exactly as uploaded. Deployments without a
// conversion sidecar use it and require clients to send WebP directly.
type NopConverter struct{}

// ConvertPageToWebp returns the input bytes unchanged.
func (NopConverter) ConvertPageToWebp(_ context.Context, data []byte) ([]byte, error) {
	return data, nil
}
