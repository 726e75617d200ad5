package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spacesedan/subpulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixturePath = filepath.Join("..", "..", "internal", "clients", "testdata", "fixture.json")

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SOURCE", "reddit")
	t.Setenv("CLASSIFIER", "vader")
	t.Setenv("FIXTURE_PATH", "")
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("KAFKA_BROKER", "")
	t.Setenv("VALKEY_INIT_ADDRESS", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDocumentCommand(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "document", "--fixture", fixturePath, "nba")
	require.NoError(t, err)

	assert.Contains(t, out, "Post Title:Great win tonight\n")
	assert.Contains(t, out, "Comment:Love this team\n")
	assert.NotContains(t, out, "https://")
	assert.NotContains(t, out, `\x`)
}

func TestAnalyzeCommand_JSON(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "analyze", "--fixture", fixturePath, "--chunk-size", "32", "--json", "r/nba")
	require.NoError(t, err)

	var report models.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "nba", report.Subreddit)
	assert.Equal(t, "vader", report.Classifier)
	assert.Positive(t, report.Verdict.Chunks)
	assert.NotEmpty(t, report.RequestID)
}

func TestAnalyzeCommand_FlagsAreCaseInsensitive(t *testing.T) {
	setupEnv(t)
	t.Setenv("CLASSIFIER", "huggingface")

	out, err := run(t, "analyze", "--source", "FILE", "--fixture", fixturePath, "--classifier", "VADER", "--json", "nba")
	require.NoError(t, err)

	var report models.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "vader", report.Classifier)
}

func TestAnalyzeCommand_EmptyCorpus(t *testing.T) {
	setupEnv(t)

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"posts":[]}`), 0o644))

	_, err := run(t, "analyze", "--fixture", empty, "nba")
	assert.ErrorIs(t, err, models.ErrEmptyCorpus)
}

func TestAnalyzeCommand_InvalidFlags(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "analyze", "--fixture", fixturePath, "--chunk-size", "0", "nba")
	assert.Error(t, err)

	_, err = run(t, "analyze", "--fixture", fixturePath, "--classifier", "magic", "nba")
	assert.Error(t, err)
}

func TestAnalyzeCommand_RequiresSubreddit(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "analyze", "--fixture", fixturePath)
	assert.Error(t, err)
}

func TestDoctorCommand(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "doctor", "--fixture", fixturePath)
	require.NoError(t, err)
	assert.Contains(t, out, "source:file")
	assert.Contains(t, out, "classifier:vader")
}
