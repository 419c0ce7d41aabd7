package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/logger"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/runner"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/queue"
)

// options holds the persistent flags. Empty or false values leave the
// environment configuration untouched.
type options struct {
	lang   string
	labels string
	source string
	out    string
	assets string
	redis  string
	urls   string

	offline bool
	noSave  bool
	noParse bool
	debug   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "crawler",
		Short: "Download and transcribe Project Sekai and BanG Dream stories",
		Long: `crawler downloads story assets from the community mirrors and writes
readable transcripts.

Examples:
  crawler sekai event 1-10
  crawler sekai talk grade1 theater limited-3 --lang jp
  crawler bestdori band 1 --chapter 2 --lang en
  crawler bestdori main
  crawler transcribe --game sekai event_01_01.asset
  crawler enqueue sekai card 100-120 --follow

Use 'crawler [command] --help' for more information about a command.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.lang, "lang", "l", "", "server region (sekai) or text language (bestdori): cn, jp, tw, en, kr")
	pf.StringVar(&opts.labels, "labels", "", "label language for transcript markers: en, zh")
	pf.StringVar(&opts.source, "source", "", "sekai event story source: sekai.best, pjsk.moe")
	pf.StringVarP(&opts.out, "out", "o", "", "output directory")
	pf.StringVar(&opts.assets, "assets", "", "asset cache directory")
	pf.StringVar(&opts.redis, "redis", "", "redis URL for the shared asset cache and the job queue")
	pf.StringVar(&opts.urls, "urls", "", "URL template file replacing the built-in one")
	pf.BoolVar(&opts.offline, "offline", false, "read assets from the cache directory only")
	pf.BoolVar(&opts.noSave, "no-save", false, "do not keep downloaded assets on disk")
	pf.BoolVar(&opts.noParse, "no-parse", false, "only download assets, write no transcripts")
	pf.BoolVar(&opts.debug, "debug", false, "annotate transcripts with unhandled snippets and effects")

	root.AddCommand(
		newSekaiCmd(opts),
		newBestdoriCmd(opts),
		newTranscribeCmd(opts),
		newEnqueueCmd(opts),
	)
	return root
}

// config loads the environment configuration and applies the flags.
func (o *options) config() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if o.labels != "" {
		cfg.Labels = o.labels
	}
	if o.out != "" {
		cfg.OutputDir = o.out
	}
	if o.assets != "" {
		cfg.AssetsDir = o.assets
	}
	if o.redis != "" {
		cfg.RedisURL = o.redis
	}
	if o.urls != "" {
		cfg.URLsFile = o.urls
	}
	if o.offline {
		cfg.Online = false
	}
	if o.noSave {
		cfg.SaveAssets = false
	}
	if o.debug {
		cfg.DebugParse = true
	}
	return cfg, logger.Setup(cfg), nil
}

// env builds the crawl environment. The returned function releases it.
func (o *options) env(ctx context.Context) (*crawl.Env, *config.Config, func() error, error) {
	cfg, log, err := o.config()
	if err != nil {
		return nil, nil, nil, err
	}
	env, closeEnv, err := crawl.Setup(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	env.Parse = !o.noParse
	return env, cfg, closeEnv, nil
}

// run executes jobs concurrently through a fresh runner.
func (o *options) run(ctx context.Context, jobs []*queue.Job) error {
	env, cfg, closeEnv, err := o.env(ctx)
	if err != nil {
		return err
	}
	defer closeEnv()

	urls, err := cfg.URLs()
	if err != nil {
		return err
	}
	r := runner.New(env, urls, runner.Options{SekaiEventSource: o.source})

	var report crawl.Report
	if err := crawl.Each(ctx, len(jobs), func(ctx context.Context, i int) error {
		err := r.Run(ctx, jobs[i])
		if err != nil {
			env.Logger.Error("Job failed", "job", jobs[i].String(), "error", err)
		}
		report.Track(err)
		return nil
	}); err != nil {
		return err
	}

	done, failed := report.Counts()
	env.Logger.Info("Crawl finished", "done", done, "failed", failed, "output", env.Writer.Root())
	if err := report.Err(); err != nil {
		return fmt.Errorf("%d of %d jobs failed: %w", failed, len(jobs), err)
	}
	return nil
}
