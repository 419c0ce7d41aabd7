package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestAssetStore_URLToPath(t *testing.T) {
	s := NewAssetStore("/data/assets", semaphore.NewWeighted(1), testLogger())

	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{
			url:  "https://bestdori.com/api/events/12.json",
			want: filepath.Join("/data/assets", "bestdori.com", "api", "events", "12.json"),
		},
		{
			url:  "https://storage.sekai.best/sekai-jp-assets/event_story/a/scenario/b.asset?x=1",
			want: filepath.Join("/data/assets", "storage.sekai.best", "sekai-jp-assets", "event_story", "a", "scenario", "b.asset"),
		},
		{url: "no-scheme/path", wantErr: true},
		{url: "https://", wantErr: true},
		{url: "https://host/../../etc/passwd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := s.URLToPath(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssetStore_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	s := NewAssetStore(dir, semaphore.NewWeighted(2), testLogger())
	ctx := context.Background()
	url := "https://bestdori.com/api/bands/main.1.json"

	_, err := s.Load(ctx, url)
	assert.ErrorIs(t, err, ErrAssetNotFound)

	require.NoError(t, s.Save(ctx, url, []byte(`{"1":{}}`)))
	assert.FileExists(t, filepath.Join(dir, "bestdori.com", "api", "bands", "main.1.json"))

	data, err := s.Load(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, `{"1":{}}`, string(data))
}

func TestAssetStore_CancelledWhileWaiting(t *testing.T) {
	sem := semaphore.NewWeighted(1)
	require.True(t, sem.TryAcquire(1))
	s := NewAssetStore(t.TempDir(), sem, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Save(ctx, "https://h/x.json", []byte("{}"))
	assert.ErrorIs(t, err, context.Canceled)
}
