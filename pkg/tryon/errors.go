package tryon

import "errors"

var (
	ErrInvalidConfig = errors.New("tryon: base url, api token and model version are required")

	// ErrGenerationFailed is returned when the prediction ends in failed or canceled
	ErrGenerationFailed = errors.New("tryon: generation failed")

	ErrUnauthorized = errors.New("tryon: unauthorized, check the api token")

	ErrNetworkError = errors.New("tryon: network error")

	// ErrEmptyOutput is returned when a succeeded prediction has no image
	ErrEmptyOutput = errors.New("tryon: prediction returned no image")
)
