package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/spacesedan/subpulse/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	REDDIT_AUTH_URL       = "https://www.reddit.com/api/v1/access_token"
	REDDIT_OAUTH_API_URL  = "https://oauth.reddit.com"
	REDDIT_PUBLIC_API_URL = "https://www.reddit.com"
	REDDIT_LISTING_LIMIT  = 100
)

// Limiter paces outgoing requests. *rate.Limiter and *ValkeyRateLimiter both
// satisfy it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// RedditClient reads subreddit listings. With client credentials it uses
// app-only OAuth against oauth.reddit.com, otherwise the public JSON endpoints.
type RedditClient struct {
	BaseURL      string
	UserAgent    string
	PostLimit    int
	CommentLimit int

	config  *clientcredentials.Config
	client  *http.Client
	timeout time.Duration
	limiter Limiter
	mu      sync.Mutex

	start, end     time.Time
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

type RedditOption func(*RedditClient)

func WithRedditBaseURL(u string) RedditOption {
	return func(rc *RedditClient) { rc.BaseURL = u }
}

func WithRedditUserAgent(ua string) RedditOption {
	return func(rc *RedditClient) {
		if ua != "" {
			rc.UserAgent = ua
		}
	}
}

func WithRedditLimits(posts, comments int) RedditOption {
	return func(rc *RedditClient) {
		rc.PostLimit = clampLimit(posts)
		rc.CommentLimit = clampLimit(comments)
	}
}

func WithRedditLimiter(l Limiter) RedditOption {
	return func(rc *RedditClient) { rc.limiter = l }
}

// WithTimeWindow keeps only posts created in [start, end). Zero values leave
// that side open.
func WithTimeWindow(start, end time.Time) RedditOption {
	return func(rc *RedditClient) { rc.start, rc.end = start, end }
}

func WithRedditBackoff(initial, max time.Duration) RedditOption {
	return func(rc *RedditClient) { rc.initialBackoff, rc.maxBackoff = initial, max }
}

func NewRedditClient(clientID, clientSecret string, timeout time.Duration, opts ...RedditOption) *RedditClient {
	if timeout <= 0 {
		timeout = DEFAULT_TIMEOUT
	}
	rc := &RedditClient{
		BaseURL:        REDDIT_PUBLIC_API_URL,
		UserAgent:      USER_AGENT,
		PostLimit:      REDDIT_LISTING_LIMIT,
		CommentLimit:   REDDIT_LISTING_LIMIT,
		timeout:        timeout,
		initialBackoff: INITIAL_BACKOFF,
		maxBackoff:     MAX_BACKOFF,
	}

	if clientID != "" && clientSecret != "" {
		rc.config = &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     REDDIT_AUTH_URL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		rc.BaseURL = REDDIT_OAUTH_API_URL
		rc.client = rc.oauthClient()
	} else {
		rc.client = &http.Client{Timeout: timeout}
	}

	for _, opt := range opts {
		opt(rc)
	}

	slog.Info("[RedditClient] Initializing Client",
		slog.String("base_url", rc.BaseURL),
		slog.Bool("oauth", rc.config != nil),
		slog.Duration("timeout", timeout))
	return rc
}

func (rc *RedditClient) oauthClient() *http.Client {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: rc.timeout})
	c := rc.config.Client(ctx)
	c.Timeout = rc.timeout
	return c
}

func (rc *RedditClient) RefreshClient() {
	if rc.config == nil {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.client = rc.oauthClient()
}

func (rc *RedditClient) httpClient() *http.Client {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.client
}

// ListRecentPosts returns the newest posts of subreddit in listing order.
func (rc *RedditClient) ListRecentPosts(ctx context.Context, subreddit string) ([]models.Post, error) {
	endpoint, err := rc.endpoint(fmt.Sprintf("/r/%s/new.json", subreddit), rc.PostLimit)
	if err != nil {
		return nil, err
	}

	var listing models.RedditAPIResponse
	if err := rc.getJSON(ctx, "list posts", endpoint, &listing); err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Kind != "" && child.Kind != "t3" {
			continue
		}
		if !rc.inWindow(child.Data.CreatedUTC) {
			continue
		}
		posts = append(posts, child.Data.ToPost())
	}

	slog.Debug("[RedditClient] Posts fetched",
		slog.String("subreddit", subreddit),
		slog.Int("count", len(posts)))
	return posts, nil
}

// ListComments returns the top-level comments of a post. "more" stubs come back
// with a nil body.
func (rc *RedditClient) ListComments(ctx context.Context, subreddit, postID string) ([]models.Comment, error) {
	endpoint, err := rc.endpoint(fmt.Sprintf("/r/%s/comments/%s.json", subreddit, url.PathEscape(postID)), rc.CommentLimit)
	if err != nil {
		return nil, err
	}

	var listings []models.RedditAPIResponse
	if err := rc.getJSON(ctx, "list comments", endpoint, &listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return nil, &models.FetchError{
			Op:  "list comments",
			Err: fmt.Errorf("expected post and comment listings, got %d", len(listings)),
		}
	}

	children := listings[1].Data.Children
	comments := make([]models.Comment, 0, len(children))
	for _, child := range children {
		comments = append(comments, child.Data.ToComment())
	}
	return comments, nil
}

func (rc *RedditClient) endpoint(path string, limit int) (string, error) {
	parsedUrl, err := url.Parse(rc.BaseURL + path)
	if err != nil {
		return "", fmt.Errorf("[RedditClient] Failed to parse URL: %w", err)
	}
	queryParams := parsedUrl.Query()
	queryParams.Set("sort", "new")
	queryParams.Set("limit", strconv.Itoa(limit))
	queryParams.Set("raw_json", "1")
	parsedUrl.RawQuery = queryParams.Encode()
	return parsedUrl.String(), nil
}

func (rc *RedditClient) inWindow(createdUTC float64) bool {
	if rc.start.IsZero() && rc.end.IsZero() {
		return true
	}
	created := time.Unix(int64(createdUTC), 0)
	if !rc.start.IsZero() && created.Before(rc.start) {
		return false
	}
	if !rc.end.IsZero() && !created.Before(rc.end) {
		return false
	}
	return true
}

// getJSON retries on 429 and 5xx with exponential backoff and refreshes the
// OAuth client once on 401. Every failure is reported as *models.FetchError.
func (rc *RedditClient) getJSON(ctx context.Context, op, endpoint string, out any) error {
	backoff := rc.initialBackoff
	refreshed := false
	var lastErr error

	for attempt := 1; attempt <= MAX_RETRIES; attempt++ {
		if rc.limiter != nil {
			if err := rc.limiter.Wait(ctx); err != nil {
				return &models.FetchError{Op: op, Err: err}
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return &models.FetchError{Op: op, Err: err}
		}
		req.Header.Set("User-Agent", rc.UserAgent)

		resp, err := rc.httpClient().Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return &models.FetchError{Op: op, Err: ctx.Err()}
			}
			lastErr = &models.FetchError{Op: op, Err: err}
		} else {
			status := resp.StatusCode
			switch {
			case status == http.StatusOK:
				defer resp.Body.Close()
				if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
					return &models.FetchError{Op: op, StatusCode: status, Err: fmt.Errorf("decode response: %w", err)}
				}
				return nil
			case status == http.StatusUnauthorized && rc.config != nil && !refreshed:
				drain(resp)
				slog.Warn("[RedditClient] Token expired - Refreshing and Retrying...")
				rc.RefreshClient()
				refreshed = true
				lastErr = &models.FetchError{Op: op, StatusCode: status}
				continue
			case status == http.StatusTooManyRequests || status >= 500:
				drain(resp)
				lastErr = &models.FetchError{Op: op, StatusCode: status}
			default:
				drain(resp)
				return &models.FetchError{Op: op, StatusCode: status}
			}
		}

		if attempt == MAX_RETRIES {
			break
		}
		slog.Warn("[RedditClient] Retrying request",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.String("error", lastErr.Error()))

		select {
		case <-ctx.Done():
			return &models.FetchError{Op: op, Err: ctx.Err()}
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > rc.maxBackoff {
			backoff = rc.maxBackoff
		}
	}

	return lastErr
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func clampLimit(n int) int {
	if n < 1 || n > REDDIT_LISTING_LIMIT {
		return REDDIT_LISTING_LIMIT
	}
	return n
}
