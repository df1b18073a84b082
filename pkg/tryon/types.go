package tryon

import (
	"encoding/json"
)

// Category values understood by the try-on model.
const (
	CategoryUpperBody   = "upper_body"
	CategoryLowerBody   = "lower_body"
	CategoryAccessories = "accessories"
)

// Prediction statuses.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Request is the input of one try-on generation.
type Request struct {
	PersonImageURL  string
	GarmentImageURL string
	Category        string
	Description     string
}

type predictionInput struct {
	HumanImg    string `json:"human_img"`
	GarmImg     string `json:"garm_img"`
	Category    string `json:"category"`
	GarmentDesc string `json:"garment_des,omitempty"`
}

type createPredictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

type Prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  interface{}     `json:"error"`
}

// done reports whether the prediction reached a final status.
func (p *Prediction) done() bool {
	switch p.Status {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// ImageURL extracts the generated image; the model returns either a single
// URL or a list whose first entry is the result.
func (p *Prediction) ImageURL() string {
	if len(p.Output) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(p.Output, &single); err == nil {
		return single
	}
	var list []string
	if err := json.Unmarshal(p.Output, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

type errorResponse struct {
	Detail string `json:"detail"`
	Title  string `json:"title"`
}
