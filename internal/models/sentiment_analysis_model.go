package models

import (
	"strings"
	"time"
)

type Label string

const (
	LabelPositive Label = "POSITIVE"
	LabelNegative Label = "NEGATIVE"
)

// NormalizeLabel maps classifier output labels onto POSITIVE/NEGATIVE. Labels
// it does not recognise are returned upper-cased and unchanged.
func NormalizeLabel(raw string) Label {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "POSITIVE", "POS", "LABEL_1":
		return LabelPositive
	case "NEGATIVE", "NEG", "LABEL_0":
		return LabelNegative
	default:
		return Label(strings.ToUpper(strings.TrimSpace(raw)))
	}
}

// ClassificationResult is the classifier output for one chunk.
type ClassificationResult struct {
	Label Label   `json:"label"`
	Score float64 `json:"score"`
}

// Verdict is the aggregate over every chunk of one corpus. Score is the mean
// per-chunk confidence, not a probability of Label.
type Verdict struct {
	Label  Label   `json:"label"`
	Score  float64 `json:"score"`
	Chunks int     `json:"chunks"`
}

type Report struct {
	RequestID    string    `json:"request_id"`
	Subreddit    string    `json:"subreddit"`
	Classifier   string    `json:"classifier,omitempty"`
	Verdict      Verdict   `json:"verdict"`
	CorpusLength int       `json:"corpus_length"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
}
