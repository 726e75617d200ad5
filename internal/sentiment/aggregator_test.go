package sentiment

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spacesedan/subpulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClassifier answers from a per-chunk table and records the calls it saw.
type stubClassifier struct {
	mu       sync.Mutex
	byText   map[string]models.ClassificationResult
	fallback models.ClassificationResult
	errOn    string
	delay    time.Duration
	calls    []string
}

func (s *stubClassifier) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	s.calls = append(s.calls, text)
	s.mu.Unlock()

	if s.errOn != "" && text == s.errOn {
		return models.ClassificationResult{}, errors.New("model overloaded")
	}
	if r, ok := s.byText[text]; ok {
		return r, nil
	}
	return s.fallback, nil
}

func TestAnalyze_EmptyCorpus(t *testing.T) {
	clf := &stubClassifier{}
	_, err := Analyze(context.Background(), "", clf, 512)

	require.ErrorIs(t, err, models.ErrEmptyCorpus)
	assert.Empty(t, clf.calls)
}

func TestAnalyze_AllPositive(t *testing.T) {
	clf := &stubClassifier{fallback: models.ClassificationResult{Label: models.LabelPositive, Score: 1.0}}

	v, err := Analyze(context.Background(), strings.Repeat("good ", 300), clf, 512)
	require.NoError(t, err)

	assert.Equal(t, models.LabelPositive, v.Label)
	assert.Equal(t, 1.0, v.Score)
	assert.Equal(t, 3, v.Chunks)
	assert.Len(t, clf.calls, 3)
}

func TestAnalyze_ExactBoundaryIsNegative(t *testing.T) {
	clf := &stubClassifier{byText: map[string]models.ClassificationResult{
		"a": {Label: models.LabelNegative, Score: 0.75},
		"b": {Label: models.LabelPositive, Score: 0.25},
	}}

	v, err := Analyze(context.Background(), "ab", clf, 1)
	require.NoError(t, err)

	assert.Equal(t, models.LabelNegative, v.Label)
	assert.InDelta(t, 0.5, v.Score, 1e-12)
	assert.Equal(t, 2, v.Chunks)
}

func TestAnalyze_MinorityPositiveWinsUnderLegacyRule(t *testing.T) {
	clf := &stubClassifier{byText: map[string]models.ClassificationResult{
		"a": {Label: models.LabelNegative, Score: 0.9},
		"b": {Label: models.LabelNegative, Score: 0.9},
		"c": {Label: models.LabelPositive, Score: 0.9},
	}}

	legacy, err := NewAggregator(WithMaxLength(1)).Analyze(context.Background(), "abc", clf)
	require.NoError(t, err)
	assert.Equal(t, models.LabelPositive, legacy.Label)

	majority, err := NewAggregator(WithMaxLength(1), WithLabelRule(BalancedMajority)).Analyze(context.Background(), "abc", clf)
	require.NoError(t, err)
	assert.Equal(t, models.LabelNegative, majority.Label)
	assert.InDelta(t, legacy.Score, majority.Score, 1e-12)
}

func TestAnalyze_ClassifiesChunksInOrder(t *testing.T) {
	clf := &stubClassifier{fallback: models.ClassificationResult{Label: models.LabelPositive, Score: 0.6}}

	_, err := Analyze(context.Background(), "abcdefg", clf, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "def", "g"}, clf.calls)
}

func TestAnalyze_NormalizesLabels(t *testing.T) {
	clf := &stubClassifier{byText: map[string]models.ClassificationResult{
		"a": {Label: "negative", Score: 0.9},
		"b": {Label: "LABEL_0", Score: 0.9},
		"c": {Label: "neutral", Score: 0.3},
	}}

	v, err := Analyze(context.Background(), "abc", clf, 1)
	require.NoError(t, err)
	assert.Equal(t, models.LabelNegative, v.Label)
	assert.InDelta(t, 0.7, v.Score, 1e-12)
}

func TestAnalyze_ClassifierErrorFailsWholeRun(t *testing.T) {
	clf := &stubClassifier{
		fallback: models.ClassificationResult{Label: models.LabelPositive, Score: 0.9},
		errOn:    "b",
	}

	_, err := Analyze(context.Background(), "abc", clf, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classify chunk 1")
}

func TestAnalyze_RejectsOutOfRangeScores(t *testing.T) {
	for _, score := range []float64{-0.1, 1.5, math.NaN()} {
		clf := &stubClassifier{fallback: models.ClassificationResult{Label: models.LabelPositive, Score: score}}
		_, err := Analyze(context.Background(), "abc", clf, 512)
		assert.ErrorIs(t, err, ErrInvalidScore)
	}
}

func TestAnalyze_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	clf := &stubClassifier{fallback: models.ClassificationResult{Label: models.LabelPositive, Score: 0.9}}
	_, err := Analyze(ctx, "abc", clf, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, clf.calls)
}

func TestAggregator_ConcurrentMatchesSequential(t *testing.T) {
	corpus := strings.Repeat("the quick brown fox ", 200)
	byText := make(map[string]models.ClassificationResult)
	for i, c := range Chunk(corpus, 50) {
		label := models.LabelPositive
		if i%3 == 0 {
			label = models.LabelNegative
		}
		byText[c] = models.ClassificationResult{Label: label, Score: 0.5 + float64(i%5)/10}
	}

	seq, err := NewAggregator(WithMaxLength(50)).Analyze(context.Background(), corpus, &stubClassifier{byText: byText})
	require.NoError(t, err)

	par, err := NewAggregator(WithMaxLength(50), WithConcurrency(8)).Analyze(context.Background(), corpus,
		&stubClassifier{byText: byText, delay: time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, seq.Label, par.Label)
	assert.Equal(t, seq.Chunks, par.Chunks)
	assert.InDelta(t, seq.Score, par.Score, 1e-12)
}

func TestAggregate_Empty(t *testing.T) {
	_, err := Aggregate(nil, LegacyThreshold)
	assert.ErrorIs(t, err, models.ErrEmptyCorpus)
}
