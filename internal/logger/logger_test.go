package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
)

func TestSetupTo_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := SetupTo(&buf, &config.Config{Environment: "production", LogLevel: slog.LevelInfo})

	WithJobID(log, "abc").Info("Episode saved", "path", "1 ep.txt")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Episode saved", line["msg"])
	assert.Equal(t, "abc", line["job_id"])
	assert.Equal(t, "1 ep.txt", line["path"])
}

func TestSetupTo_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := SetupTo(&buf, &config.Config{Environment: "development", LogLevel: slog.LevelWarn})

	log.Info("hidden")
	WithError(log, errors.New("boom")).Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "error=boom")
}
