package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spacesedan/subpulse/internal/models"
	"github.com/spacesedan/subpulse/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHFClient(t *testing.T, h http.HandlerFunc) *HuggingFaceClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewHuggingFaceClient(srv.URL, "hf_test", time.Second)
	c.initialBackoff = time.Millisecond
	return c
}

func TestHuggingFaceClient_Classify(t *testing.T) {
	var got models.HFInferenceRequest
	var auth string
	c := newTestHFClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`[[{"label":"NEGATIVE","score":0.12},{"label":"POSITIVE","score":0.88}]]`))
	})

	res, err := c.Classify(context.Background(), "great game")
	require.NoError(t, err)

	assert.Equal(t, "Bearer hf_test", auth)
	assert.Equal(t, "great game", got.Inputs)
	assert.True(t, got.Options.WaitForModel)
	assert.Equal(t, models.LabelPositive, res.Label)
	assert.InDelta(t, 0.88, res.Score, 1e-9)
}

func TestHuggingFaceClient_FlatResponse(t *testing.T) {
	c := newTestHFClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"label":"LABEL_0","score":0.7},{"label":"LABEL_1","score":0.3}]`))
	})

	res, err := c.Classify(context.Background(), "meh")
	require.NoError(t, err)
	assert.Equal(t, models.LabelNegative, res.Label)
	assert.InDelta(t, 0.7, res.Score, 1e-9)
}

func TestHuggingFaceClient_RetriesWhileModelLoads(t *testing.T) {
	var calls atomic.Int32
	c := newTestHFClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"Model is currently loading","estimated_time":20}`))
			return
		}
		w.Write([]byte(`[[{"label":"POSITIVE","score":0.9}]]`))
	})

	res, err := c.Classify(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, models.LabelPositive, res.Label)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHuggingFaceClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestHFClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"input too long"}`))
	})

	_, err := c.Classify(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input too long")
	assert.Equal(t, int32(1), calls.Load())
}

func TestHuggingFaceClient_EmptyResult(t *testing.T) {
	c := newTestHFClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := c.Classify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoLabels)
}

func TestHuggingFaceClient_DrivesAggregator(t *testing.T) {
	var calls atomic.Int32
	c := newTestHFClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req models.HFInferenceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if strings.Contains(req.Inputs, "bad") {
			w.Write([]byte(`[[{"label":"NEGATIVE","score":0.9}]]`))
			return
		}
		w.Write([]byte(`[[{"label":"POSITIVE","score":0.6}]]`))
	})

	corpus := strings.Repeat("g", 512) + strings.Repeat("bad ", 128) + "tail"
	v, err := sentiment.Analyze(context.Background(), corpus, c, 512)
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 3, v.Chunks)
	assert.Equal(t, models.LabelPositive, v.Label)
	assert.InDelta(t, 0.7, v.Score, 1e-9)
}
