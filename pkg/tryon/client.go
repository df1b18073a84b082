package tryon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultPollInterval = 2 * time.Second

// Client talks to a prediction-style image generation API.
type Client struct {
	config     Config
	httpClient *http.Client
}

func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaultPollInterval
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Generate starts a prediction and polls it until it finishes or ctx is
// done. It returns the URL of the generated image.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	body := createPredictionRequest{
		Version: c.config.ModelVersion,
		Input: predictionInput{
			HumanImg:    req.PersonImageURL,
			GarmImg:     req.GarmentImageURL,
			Category:    req.Category,
			GarmentDesc: req.Description,
		},
	}

	var prediction Prediction
	if err := c.doRequest(ctx, http.MethodPost, "/predictions", body, &prediction); err != nil {
		return "", fmt.Errorf("create prediction: %w", err)
	}

	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for !prediction.done() {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("prediction %s: %w", prediction.ID, ctx.Err())
		case <-ticker.C:
		}
		if err := c.doRequest(ctx, http.MethodGet, "/predictions/"+prediction.ID, nil, &prediction); err != nil {
			return "", fmt.Errorf("poll prediction %s: %w", prediction.ID, err)
		}
	}

	if prediction.Status != StatusSucceeded {
		return "", fmt.Errorf("%w: prediction %s ended %s: %v", ErrGenerationFailed, prediction.ID, prediction.Status, prediction.Error)
	}
	url := prediction.ImageURL()
	if url == "" {
		return "", ErrEmptyOutput
	}
	return url, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorResponse
		_ = json.Unmarshal(body, &errResp)
		msg := fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(errResp.Detail))
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		}
		return fmt.Errorf("%w: %s", ErrGenerationFailed, msg)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
