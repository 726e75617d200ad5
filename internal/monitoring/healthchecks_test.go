package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	boom := errors.New("boom")
	checks := []Check{
		{Name: "ok", Probe: func(ctx context.Context) error { return nil }},
		{Name: "broken", Probe: func(ctx context.Context) error { return boom }},
	}

	results := Run(context.Background(), checks, time.Second)
	require.Len(t, results, 2)

	assert.Equal(t, "ok", results[0].Name)
	assert.True(t, results[0].Healthy)
	assert.NoError(t, results[0].Err)

	assert.Equal(t, "broken", results[1].Name)
	assert.False(t, results[1].Healthy)
	assert.ErrorIs(t, results[1].Err, boom)

	assert.False(t, Healthy(results))
	assert.True(t, Healthy(results[:1]))
}

func TestRun_Timeout(t *testing.T) {
	slow := Check{Name: "slow", Probe: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	results := Run(context.Background(), []Check{slow}, 10*time.Millisecond)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
}
