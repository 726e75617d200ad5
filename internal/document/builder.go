package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/spacesedan/subpulse/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	postTitleLabel = "Post Title:"
	postBodyLabel  = "Post Body:"
	commentLabel   = "Comment:"
	recordSep      = "\n"
)

var subredditPattern = regexp.MustCompile(`^[A-Za-z0-9_+]+$`)

// ForumSource is the read side of a discussion forum.
type ForumSource interface {
	ListRecentPosts(ctx context.Context, subreddit string) ([]models.Post, error)
	ListComments(ctx context.Context, subreddit, postID string) ([]models.Comment, error)
}

type Builder struct {
	source      ForumSource
	concurrency int
}

type Option func(*Builder)

// WithConcurrency fetches comments for up to n posts at once. The corpus keeps
// fetch order regardless.
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

func NewBuilder(source ForumSource, opts ...Option) *Builder {
	b := &Builder{source: source, concurrency: 1}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles a sanitized corpus from the recent posts of subreddit using a
// sequential builder.
func Build(ctx context.Context, subreddit string, source ForumSource) (string, error) {
	return NewBuilder(source).Build(ctx, subreddit)
}

// Build fetches the recent posts of subreddit and their comments and returns
// them as one sanitized document. A failed post listing yields an empty
// document and no error; callers must treat "" as "nothing to analyze".
func (b *Builder) Build(ctx context.Context, subreddit string) (string, error) {
	name, err := NormalizeSubreddit(subreddit)
	if err != nil {
		return "", err
	}

	posts, err := b.source.ListRecentPosts(ctx, name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var fetchErr *models.FetchError
		if errors.As(err, &fetchErr) {
			slog.Warn("[DocumentBuilder] Post listing failed, returning empty document",
				slog.String("subreddit", name),
				slog.String("error", err.Error()))
			return "", nil
		}
		return "", fmt.Errorf("list posts for r/%s: %w", name, err)
	}

	if len(posts) == 0 {
		slog.Info("[DocumentBuilder] No posts found", slog.String("subreddit", name))
		return "", nil
	}

	comments, err := b.fetchComments(ctx, name, posts)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	skipped := 0
	for i, post := range posts {
		skipped += writePost(&sb, post, comments[i])
	}

	slog.Debug("[DocumentBuilder] Document assembled",
		slog.String("subreddit", name),
		slog.Int("posts", len(posts)),
		slog.Int("skipped_comments", skipped),
		slog.Int("raw_length", sb.Len()))

	return Sanitize(sb.String()), nil
}

func (b *Builder) fetchComments(ctx context.Context, subreddit string, posts []models.Post) ([][]models.Comment, error) {
	results := make([][]models.Comment, len(posts))

	if b.concurrency <= 1 {
		for i, post := range posts {
			comments, err := b.listComments(ctx, subreddit, post.ID)
			if err != nil {
				return nil, err
			}
			results[i] = comments
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, post := range posts {
		g.Go(func() error {
			comments, err := b.listComments(gctx, subreddit, post.ID)
			if err != nil {
				return err
			}
			results[i] = comments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// listComments absorbs fetch failures for a single post so one broken thread
// does not drop the whole document.
func (b *Builder) listComments(ctx context.Context, subreddit, postID string) ([]models.Comment, error) {
	comments, err := b.source.ListComments(ctx, subreddit, postID)
	if err == nil {
		return comments, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	var fetchErr *models.FetchError
	if errors.As(err, &fetchErr) {
		slog.Warn("[DocumentBuilder] Comment listing failed, skipping comments",
			slog.String("subreddit", subreddit),
			slog.String("post_id", postID),
			slog.String("error", err.Error()))
		return nil, nil
	}
	return nil, fmt.Errorf("list comments for post %s: %w", postID, err)
}

// writePost appends one post and its comments and reports how many comments
// were skipped for lack of a body.
func writePost(sb *strings.Builder, post models.Post, comments []models.Comment) int {
	sb.WriteString(postTitleLabel)
	sb.WriteString(post.Title)
	sb.WriteString(recordSep)
	sb.WriteString(postBodyLabel)
	sb.WriteString(post.Body)
	sb.WriteString(recordSep)

	skipped := 0
	for _, c := range comments {
		body, err := c.Text()
		if err != nil {
			skipped++
			continue
		}
		sb.WriteString(commentLabel)
		sb.WriteString(body)
		sb.WriteString(recordSep)
	}
	return skipped
}

// NormalizeSubreddit trims whitespace and an r/ prefix and checks the rest is a
// single subreddit token (or a + joined multireddit).
func NormalizeSubreddit(subreddit string) (string, error) {
	name := strings.TrimSpace(subreddit)
	name = strings.TrimPrefix(name, "/")
	name = strings.TrimPrefix(name, "r/")
	if !subredditPattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidSubreddit, subreddit)
	}
	return name, nil
}
