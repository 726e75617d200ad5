package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spacesedan/subpulse/internal/models"
)

// Fixture is a saved forum snapshot: posts in listing order plus comments keyed
// by post ID.
type Fixture struct {
	Posts    []models.Post               `json:"posts"`
	Comments map[string][]models.Comment `json:"comments"`
}

// FileSource serves a fixed Fixture and never touches the network. The
// subreddit argument is ignored.
type FileSource struct {
	fixture Fixture
}

func NewFixtureSource(f Fixture) *FileSource {
	return &FileSource{fixture: f}
}

func NewFileSource(path string) (*FileSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}

	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}

	slog.Info("[FileSource] Fixture loaded",
		slog.String("path", path),
		slog.Int("posts", len(f.Posts)))
	return NewFixtureSource(f), nil
}

func (s *FileSource) ListRecentPosts(ctx context.Context, _ string) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.Post(nil), s.fixture.Posts...), nil
}

func (s *FileSource) ListComments(ctx context.Context, _ string, postID string) ([]models.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.Comment(nil), s.fixture.Comments[postID]...), nil
}
