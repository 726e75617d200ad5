package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"
)

const VALKEY_REDDIT_RATE_KEY = "reddit:rate"

func NewValkeyClient(addr, password string, useTLS bool) (valkey.Client, error) {
	opts := valkey.ClientOption{
		InitAddress:      []string{addr},
		Password:         password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if useTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey", slog.String("address", addr))
	return client, nil
}

// ValkeyRateLimiter is a fixed-window limiter shared by every process pointed
// at the same Valkey instance, so several workers stay under one Reddit quota.
type ValkeyRateLimiter struct {
	client valkey.Client
	key    string
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewValkeyRateLimiter(client valkey.Client, key string, limit int, window time.Duration) *ValkeyRateLimiter {
	if key == "" {
		key = VALKEY_REDDIT_RATE_KEY
	}
	if window <= 0 {
		window = time.Minute
	}
	if limit < 1 {
		limit = 1
	}
	return &ValkeyRateLimiter{
		client: client,
		key:    key,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// Wait blocks until the current window has a free slot or ctx is done.
func (l *ValkeyRateLimiter) Wait(ctx context.Context) error {
	for {
		now := l.now()
		bucket, windowEnd := l.bucket(now)

		results := l.client.DoMulti(ctx,
			l.client.B().Incr().Key(bucket).Build(),
			l.client.B().Expire().Key(bucket).Seconds(ttlSeconds(l.window)).Build(),
		)
		count, err := results[0].AsInt64()
		if err != nil {
			return fmt.Errorf("[ValkeyRateLimiter] incr %s: %w", bucket, err)
		}
		if err := results[1].Error(); err != nil {
			return fmt.Errorf("[ValkeyRateLimiter] expire %s: %w", bucket, err)
		}
		if count <= l.limit {
			return nil
		}

		wait := windowEnd.Sub(now)
		slog.Debug("[ValkeyRateLimiter] Window exhausted, waiting",
			slog.String("bucket", bucket),
			slog.Duration("wait", wait))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// bucket returns the key for the window containing t and when that window ends.
func (l *ValkeyRateLimiter) bucket(t time.Time) (string, time.Time) {
	start := t.Truncate(l.window)
	return fmt.Sprintf("%s:%d", l.key, start.Unix()), start.Add(l.window)
}

func ttlSeconds(window time.Duration) int64 {
	return int64(window/time.Second) + 1
}
