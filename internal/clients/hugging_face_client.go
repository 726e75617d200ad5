package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spacesedan/subpulse/internal/models"
)

const HF_SENTIMENT_ENDPOINT = "https://api-inference.huggingface.co/models/distilbert-base-uncased-finetuned-sst-2-english"

var ErrNoLabels = errors.New("classifier returned no labels")

// HuggingFaceClient classifies text with a hosted text-classification model.
type HuggingFaceClient struct {
	Client   *http.Client
	Endpoint string

	token          string
	initialBackoff time.Duration
}

func NewHuggingFaceClient(endpoint, token string, timeout time.Duration) *HuggingFaceClient {
	if endpoint == "" {
		endpoint = HF_SENTIMENT_ENDPOINT
	}
	if timeout <= 0 {
		timeout = DEFAULT_TIMEOUT
	}
	slog.Info("[HuggingFaceClient] Initializing Client",
		slog.String("endpoint", endpoint),
		slog.Duration("timeout", timeout))

	return &HuggingFaceClient{
		Client:         &http.Client{Timeout: timeout},
		Endpoint:       endpoint,
		token:          token,
		initialBackoff: INITIAL_BACKOFF,
	}
}

// Classify returns the highest scoring label for text.
func (h *HuggingFaceClient) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	var raw json.RawMessage
	req := models.HFInferenceRequest{
		Inputs:  text,
		Options: models.HFInferenceOptions{WaitForModel: true, UseCache: true},
	}
	if err := h.postJSON(ctx, h.Endpoint, req, &raw); err != nil {
		return models.ClassificationResult{}, err
	}

	candidates, err := decodeLabelScores(raw)
	if err != nil {
		slog.Error("[HuggingFaceClient] Unexpected response shape",
			slog.String("error", err.Error()),
			getPreview(raw))
		return models.ClassificationResult{}, err
	}
	return topLabel(candidates)
}

func decodeLabelScores(raw json.RawMessage) ([]models.HFLabelScore, error) {
	var nested [][]models.HFLabelScore
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, ErrNoLabels
		}
		return nested[0], nil
	}

	var flat []models.HFLabelScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return flat, nil
}

func topLabel(candidates []models.HFLabelScore) (models.ClassificationResult, error) {
	if len(candidates) == 0 {
		return models.ClassificationResult{}, ErrNoLabels
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return models.ClassificationResult{
		Label: models.NormalizeLabel(best.Label),
		Score: best.Score,
	}, nil
}

// DoWithRetry retries transport errors and 5xx responses (including the 503 a
// cold model returns while loading) with exponential backoff.
func (h *HuggingFaceClient) DoWithRetry(ctx context.Context, newReq func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := h.initialBackoff

	for attempt := 0; attempt < MAX_RETRIES; attempt++ {
		req, buildErr := newReq()
		if buildErr != nil {
			return nil, buildErr
		}

		resp, err = h.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		slog.Warn("[HuggingFaceClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		if resp != nil {
			resp.Body.Close()
		}
		if attempt == MAX_RETRIES-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > MAX_BACKOFF {
			backoff = MAX_BACKOFF
		}
	}

	if err == nil {
		err = fmt.Errorf("status code %d", resp.StatusCode)
	}
	return nil, err
}

func (h *HuggingFaceClient) postJSON(ctx context.Context, endpoint string, input any, output any) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	newReq := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", USER_AGENT)
		if h.token != "" {
			req.Header.Set("Authorization", "Bearer "+h.token)
		}
		return req, nil
	}

	start := time.Now()
	resp, err := h.DoWithRetry(ctx, newReq)
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed request after retries",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr models.HFErrorResponse
		_ = json.Unmarshal(respBody, &apiErr)
		slog.Error("[HuggingFaceClient] Non-success response",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			getPreview(respBody))
		if apiErr.Error != "" {
			return fmt.Errorf("status code %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("status code %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		slog.Error("[HuggingFaceClient] Failed to unmarshal response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
			getPreview(respBody),
			slog.Int("raw_response_length", len(respBody)))
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	slog.Debug("[HuggingFaceClient] Request successful",
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
