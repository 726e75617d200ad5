package models

type HFInferenceRequest struct {
	Inputs  string             `json:"inputs"`
	Options HFInferenceOptions `json:"options"`
}

type HFInferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

// HFLabelScore is one candidate label from a text-classification endpoint.
// The hosted API answers with [][]HFLabelScore for a single input; some
// deployments flatten it to []HFLabelScore.
type HFLabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type HFErrorResponse struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}
