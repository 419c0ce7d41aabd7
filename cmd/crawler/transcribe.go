package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/bestdori"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/fetch"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/sekai"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/scenario"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/transcript"
)

func newTranscribeCmd(opts *options) *cobra.Command {
	var (
		game  string
		names bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe <asset file>",
		Short: "Print the transcript of a local scenario asset",
		Long: `Decode a scenario asset saved on disk and print its transcript to stdout.

With --names the character tables are fetched so the transcript starts with
the list of appearing characters.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := scenario.ParseSource(game)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			env, cfg, closeEnv, err := opts.env(ctx)
			if err != nil {
				return err
			}
			defer closeEnv()

			var resolver transcript.CharacterResolver
			if names {
				if resolver, err = nameResolver(ctx, env, cfg, source, opts.lang); err != nil {
					return err
				}
			}

			text, err := env.Transcribe(ctx, source, fetch.Result{Data: data, Source: fetch.SourceDisk}, resolver)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVarP(&game, "game", "g", "sekai", "asset format: sekai, bestdori")
	cmd.Flags().BoolVar(&names, "names", false, "resolve appearing characters from the master tables")
	return cmd
}

func nameResolver(ctx context.Context, env *crawl.Env, cfg *config.Config, source scenario.Source, lang string) (transcript.CharacterResolver, error) {
	region := config.RegionCN
	if lang != "" {
		var err error
		if region, err = config.ParseRegion(lang); err != nil {
			return nil, err
		}
	}
	urls, err := cfg.URLs()
	if err != nil {
		return nil, err
	}

	if source == scenario.SourceBestdori {
		set, err := urls.Set(config.GameBestdori, "", config.SourceBestdori)
		if err != nil {
			return nil, err
		}
		reader := bestdori.NewReader(env, set)
		if err := reader.Init(ctx); err != nil {
			return nil, err
		}
		return reader.Resolver(region), nil
	}

	set, err := urls.Set(config.GameSekai, region, config.SourceSekaiBest)
	if err != nil {
		return nil, err
	}
	reader := sekai.NewReader(env, set, region)
	if err := reader.Init(ctx); err != nil {
		return nil, err
	}
	return reader, nil
}
