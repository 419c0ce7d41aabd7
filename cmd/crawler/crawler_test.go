package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl/crawltest"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/logger"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/services/events"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/services/queue"
	queuePkg "github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/queue"
)

const sekaiAsset = `{"TalkData":[{"WindowDisplayName":"Miku","Body":"hello\nthere"}],"SpecialEffectData":[],` +
	`"Snippets":[{"Index":0,"Action":1,"ReferenceIndex":0}],"AppearCharacters":[]}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExpandTargets(t *testing.T) {
	tests := []struct {
		name    string
		spec    kindSpec
		args    []string
		want    []string
		wantErr bool
	}{
		{"ids and ranges", kindSpec{kind: queuePkg.KindEvent}, []string{"3", "5-7"}, []string{"3", "5", "6", "7"}, false},
		{"talk names pass through", kindSpec{kind: queuePkg.KindTalk}, []string{"grade1", "limited-3", "10-11"}, []string{"grade1", "limited-3", "10", "11"}, false},
		{"names rejected elsewhere", kindSpec{kind: queuePkg.KindCard}, []string{"grade1"}, nil, true},
		{"optional without targets", kindSpec{kind: queuePkg.KindMain, optional: true}, nil, []string{""}, false},
		{"reversed range", kindSpec{kind: queuePkg.KindEvent}, []string{"9-2"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandTargets(tt.spec, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranscribeCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ev.asset")
	require.NoError(t, os.WriteFile(path, []byte(sekaiAsset), 0o644))

	out, err := execute(t, "transcribe", "--game", "sekai", "--out", t.TempDir(), path)
	require.NoError(t, err)
	assert.Equal(t, "Miku：hello there\n", out)

	_, err = execute(t, "transcribe", "--game", "garupa", path)
	assert.Error(t, err)

	_, err = execute(t, "transcribe", filepath.Join(t.TempDir(), "missing.asset"))
	assert.Error(t, err)
}

func TestSekaiEventCmd(t *testing.T) {
	up := crawltest.NewUpstream(t)
	up.Handle("/character2ds.json", `[]`)
	up.Handle("/events.json", `[{"id":4,"name":"Four","eventType":"marathon","unit":"none","assetbundleName":"e4"}]`)
	up.Handle("/eventStories.json", `[{"eventId":4,"outline":"o","bannerGameCharacterUnitId":1,"eventStoryEpisodes":[
		{"eventStoryId":4,"episodeNo":1,"title":"t","scenarioId":"s"}]}]`)
	up.Handle("/event/e4/s.asset", sekaiAsset)

	urls := strings.ReplaceAll(`sekai:
  cn:
    sekai.best:
      character2ds: BASE/character2ds.json
      events: BASE/events.json
      eventStories: BASE/eventStories.json
      event_asset: BASE/event/{assetbundleName}/{scenarioId}.asset
`, "BASE", up.URL)
	dir := t.TempDir()
	urlsFile := filepath.Join(dir, "urls.yaml")
	require.NoError(t, os.WriteFile(urlsFile, []byte(urls), 0o644))
	out := filepath.Join(dir, "out")

	_, err := execute(t, "sekai", "event", "4", "--urls", urlsFile, "--out", out, "--assets", filepath.Join(dir, "assets"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "event_story", "4 Four（LN_星乃一歌）", "4-1 t.txt"))
	require.NoError(t, err)
	assert.Equal(t, "o\n\n4-1 t\n\nMiku：hello there\n", string(data))

	_, err = execute(t, "sekai", "event", "4-5", "--urls", urlsFile, "--out", out, "--assets", filepath.Join(dir, "assets"))
	assert.ErrorContains(t, err, "1 of 2 jobs failed")
}

func TestEnqueueCmd(t *testing.T) {
	mr := miniredis.RunT(t)
	redisURL := "redis://" + mr.Addr()

	out, err := execute(t, "enqueue", "sekai", "talk", "grade1", "1-2", "--lang", "jp", "--redis", redisURL)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "queued "))

	entries, err := mr.List("crawl-jobs")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	job, err := queuePkg.FromJSON([]byte(entries[0]))
	require.NoError(t, err)
	assert.Equal(t, "grade1", job.Target)
	assert.Equal(t, "jp", job.Lang)

	_, err = execute(t, "enqueue", "sekai", "band", "1", "--redis", redisURL)
	assert.ErrorContains(t, err, "unknown sekai kind")
	_, err = execute(t, "enqueue", "sekai", "event", "--redis", redisURL)
	assert.ErrorContains(t, err, "needs at least one target")
	_, err = execute(t, "enqueue", "bestdori", "main")
	assert.ErrorContains(t, err, "REDIS_URL")
}

func TestEnqueueCmd_Follow(t *testing.T) {
	mr := miniredis.RunT(t)
	redisURL := "redis://" + mr.Addr()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client, err := queue.NewClient(ctx, redisURL, logger.Discard())
	require.NoError(t, err)
	defer client.Close()

	// Stand-in worker: completes the first job and fails the second.
	go func() {
		jobs := queue.NewJobQueue(client)
		b := events.NewBroadcaster(client.Redis(), logger.Discard())
		for n := 0; n < 2; {
			job, err := jobs.BlockingDequeue(ctx, 50*time.Millisecond)
			if err != nil || ctx.Err() != nil {
				return
			}
			if job == nil {
				continue
			}
			_ = b.PublishJobProcessing(ctx, job, "w1")
			if job.Target == "1" {
				_ = b.PublishJobCompleted(ctx, job, "w1", 5)
			} else {
				_ = b.PublishJobFailed(ctx, job, "w1", "boom")
			}
			n++
		}
	}()

	out, err := execute(t, "enqueue", "bestdori", "event", "1-2", "--follow", "--redis", redisURL)
	assert.ErrorIs(t, err, errJobsFailed)
	assert.Contains(t, out, "job.completed   bestdori event 1 on w1")
	assert.Contains(t, out, "job.failed      bestdori event 2 on w1: boom")
}
