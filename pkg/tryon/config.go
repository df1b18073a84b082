package tryon

import "time"

// Config configures the prediction API client.
type Config struct {
	// BaseURL is the prediction API root, e.g. https://api.replicate.com/v1
	BaseURL string

	// APIToken is sent as a bearer token
	APIToken string

	// ModelVersion identifies the try-on model to run
	ModelVersion string

	// PollInterval is the wait between status checks; defaults to 2s
	PollInterval time.Duration
}

func (c *Config) Validate() error {
	if c.BaseURL == "" || c.APIToken == "" || c.ModelVersion == "" {
		return ErrInvalidConfig
	}
	return nil
}
