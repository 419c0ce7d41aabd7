package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/queue"
)

// kindSpec describes one crawl subcommand.
type kindSpec struct {
	kind  string
	use   string
	short string

	// optional kinds crawl everything when no target is given.
	optional bool
}

var sekaiKinds = []kindSpec{
	{kind: queue.KindEvent, use: "event <id|a-b>...", short: "Event stories"},
	{kind: queue.KindUnit, use: "unit <unit>...", short: "Unit stories (1 Leo/need ... 6 VIRTUAL SINGER)"},
	{kind: queue.KindCard, use: "card <id|a-b>...", short: "Card side stories"},
	{kind: queue.KindTalk, use: "talk <event id|grade1|grade2|theater|limited-N|aprilfoolYYYY>...", short: "Area talks grouped by release"},
	{kind: queue.KindTalkID, use: "talk-id <id|a-b>...", short: "Single area talks by action set id"},
}

var bestdoriKinds = []kindSpec{
	{kind: queue.KindEvent, use: "event <id|a-b>...", short: "Event stories"},
	{kind: queue.KindBand, use: "band [band id]...", short: "Band stories, every band when no id is given", optional: true},
	{kind: queue.KindMain, use: "main [chapter]...", short: "Main story chapters, all when none is given", optional: true},
	{kind: queue.KindCard, use: "card <id|a-b>...", short: "Card episodes"},
}

func newSekaiCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sekai",
		Short: "Crawl Project Sekai stories",
		Long: `Crawl Project Sekai stories. --lang selects the server region
(cn, jp, tw); --source pjsk.moe reads jp event stories from the alternate
mirror.`,
	}
	for _, spec := range sekaiKinds {
		cmd.AddCommand(newKindCmd(opts, queue.GameSekai, spec))
	}
	return cmd
}

func newBestdoriCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bestdori",
		Aliases: []string{"bandori"},
		Short:   "Crawl BanG Dream stories from Bestdori",
		Long: `Crawl BanG Dream stories from Bestdori. --lang selects the text
language (jp, en, tw, cn, kr); untranslated stories are skipped.`,
	}
	for _, spec := range bestdoriKinds {
		cmd.AddCommand(newKindCmd(opts, queue.GameBestdori, spec))
	}
	return cmd
}

func newKindCmd(opts *options, game string, spec kindSpec) *cobra.Command {
	var chapter int

	cmd := &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := expandTargets(spec, args)
			if err != nil {
				return err
			}
			jobs := make([]*queue.Job, len(targets))
			for i, target := range targets {
				jobs[i] = queue.NewJob(game, spec.kind, target, opts.lang)
				jobs[i].Chapter = chapter
			}
			return opts.run(cmd.Context(), jobs)
		},
	}
	if spec.optional {
		cmd.Args = cobra.ArbitraryArgs
	}
	if spec.kind == queue.KindBand {
		cmd.Flags().IntVar(&chapter, "chapter", 0, "chapter number, 0 for all")
	}
	return cmd
}

// expandTargets turns command arguments into job targets. Numeric ids and
// ranges expand to one target per id; area talk names pass through.
func expandTargets(spec kindSpec, args []string) ([]string, error) {
	if len(args) == 0 && spec.optional {
		return []string{""}, nil
	}

	var targets []string
	for _, arg := range args {
		ids, err := crawl.ParseTargets([]string{arg})
		if err != nil {
			if spec.kind == queue.KindTalk {
				targets = append(targets, arg)
				continue
			}
			return nil, err
		}
		for _, id := range ids {
			targets = append(targets, strconv.Itoa(id))
		}
	}
	return targets, nil
}
