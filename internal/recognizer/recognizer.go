// Package recognizer defines the contract with the face recognition service that turns
// photos into templates and compares a live photo with a stored template.
package recognizer

import "context"

// Image is an uploaded photo forwarded to the recognizer unchanged.
type Image struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ExtractResult carries the template computed for an enrollment photo.
type ExtractResult struct {
	TemplateBase64 string
}

// MatchResult is the recognizer's decision for a live photo against a stored template.
type MatchResult struct {
	IsMatch           bool
	Distance          float64
	ConfidencePercent float64
}

// Client exposes the subset of recognizer functionality used by the enrollment and
// check-in flows. Implementations fail with an apperror of kind Recognizer when the
// service rejects the input or times out.
type Client interface {
	Extract(ctx context.Context, image Image) (*ExtractResult, error)
	Match(ctx context.Context, live Image, registeredTemplateBase64 string) (*MatchResult, error)
}
