// Package observe holds the crawler's OpenTelemetry metric instruments.
//
// Instruments are created from a [metric.MeterProvider]. Binaries use
// [DefaultMetrics], backed by the global provider (a no-op unless one is
// installed); tests build their own with [NewMetrics] and an SDK
// ManualReader.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/ci-ke/ProjectSekai-BangDream-story-crawler"

// Status values used on the status attribute.
const (
	StatusOK          = "ok"
	StatusError       = "error"
	StatusPlaceholder = "placeholder"
)

// Metrics holds all metric instruments. Safe for concurrent use.
type Metrics struct {
	// FetchRequests counts asset fetches by source (network, disk, cache)
	// and status.
	FetchRequests metric.Int64Counter

	// FetchDuration tracks network fetch latency.
	FetchDuration metric.Float64Histogram

	// CacheLookups counts cache lookups by layer and hit/miss.
	CacheLookups metric.Int64Counter

	// Transcripts counts transcribed documents by game and status.
	Transcripts metric.Int64Counter

	// FilesWritten counts transcript files written.
	FilesWritten metric.Int64Counter

	// JobsProcessed counts queue jobs by kind and status.
	JobsProcessed metric.Int64Counter
}

var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates all instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FetchRequests, err = m.Int64Counter("crawler.fetch.requests",
		metric.WithDescription("Asset fetches by source and status."),
	); err != nil {
		return nil, err
	}
	if met.FetchDuration, err = m.Float64Histogram("crawler.fetch.duration",
		metric.WithDescription("Latency of network asset fetches."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CacheLookups, err = m.Int64Counter("crawler.cache.lookups",
		metric.WithDescription("Asset cache lookups by layer and result."),
	); err != nil {
		return nil, err
	}
	if met.Transcripts, err = m.Int64Counter("crawler.transcripts",
		metric.WithDescription("Scenario documents transcribed by game and status."),
	); err != nil {
		return nil, err
	}
	if met.FilesWritten, err = m.Int64Counter("crawler.files.written",
		metric.WithDescription("Transcript files written."),
	); err != nil {
		return nil, err
	}
	if met.JobsProcessed, err = m.Int64Counter("crawler.jobs.processed",
		metric.WithDescription("Queued crawl jobs by kind and status."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level instance built from
// [otel.GetMeterProvider]. Panics if instrument creation fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordFetch counts one fetch from source ("network", "disk", "cache").
func (m *Metrics) RecordFetch(ctx context.Context, source, status string) {
	m.FetchRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("status", status),
		),
	)
}

// ObserveFetch records the latency of a network fetch started at start.
func (m *Metrics) ObserveFetch(ctx context.Context, start time.Time) {
	m.FetchDuration.Record(ctx, time.Since(start).Seconds())
}

// RecordCache counts one lookup against a cache layer.
func (m *Metrics) RecordCache(ctx context.Context, layer string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("layer", layer),
			attribute.String("result", result),
		),
	)
}

// RecordTranscript counts one transcription attempt.
func (m *Metrics) RecordTranscript(ctx context.Context, game, status string) {
	m.Transcripts.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("game", game),
			attribute.String("status", status),
		),
	)
}

// RecordFileWritten counts one transcript file.
func (m *Metrics) RecordFileWritten(ctx context.Context) {
	m.FilesWritten.Add(ctx, 1)
}

// RecordJob counts one processed queue job.
func (m *Metrics) RecordJob(ctx context.Context, kind, status string) {
	m.JobsProcessed.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}
