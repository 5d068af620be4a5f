package main

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"animap/internal/config"
	"animap/internal/index"
	"animap/internal/logging"
	"animap/internal/mapping"
	"animap/internal/updater"
)

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var sourcePath string
	var collections []string
	var noAbsolute bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Reconcile the anime list into the index",
		Long: "Stream the anime-list document once per collection, parse and merge every record,\n" +
			"and rewrite index entries whose content changed since the last run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(sourcePath) != "" {
				expanded, err := config.ExpandPath(strings.TrimSpace(sourcePath))
				if err != nil {
					return fmt.Errorf("resolve source path: %w", err)
				}
				cfg.Source.AnimeList = expanded
			}
			if noAbsolute {
				cfg.Run.AbsoluteMapping = false
			}
			names := cfg.Run.Collections
			if len(collections) > 0 {
				names = collections
			}
			selected, err := parseCollections(names)
			if err != nil {
				return err
			}
			if err := cfg.ValidateUpdate(collectionNames(selected)); err != nil {
				return err
			}

			runID := updater.NewRunID()
			logger, err := logging.NewFromConfig(cfg, runID)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			sources, err := updater.BuildSources(cfg)
			if err != nil {
				return err
			}

			return ctx.withStore(func(cfg *config.Config, store *index.Store) error {
				u, err := updater.New(cfg, store,
					updater.WithRunID(runID),
					updater.WithLogger(logger),
					updater.WithSources(sources),
					updater.WithProgressWriter(os.Stderr),
				)
				if err != nil {
					return err
				}
				summary, runErr := u.Run(cmd.Context(), selected)
				printSummary(cmd, summary)
				return runErr
			})
		},
	}

	cmd.Flags().StringVarP(&sourcePath, "source", "s", "", "Anime-list XML document (overrides source.anime_list)")
	cmd.Flags().StringSliceVar(&collections, "collection", nil, "Collection to update, e.g. tvdb/anidb (repeatable; defaults to run.collections)")
	cmd.Flags().BoolVar(&noAbsolute, "no-absolute", false, "Skip absolute-numbering conversion")
	return cmd
}

func parseCollections(names []string) ([]mapping.Collection, error) {
	out := make([]mapping.Collection, 0, len(names))
	for _, name := range names {
		c, err := mapping.ParseCollection(name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func collectionNames(collections []mapping.Collection) []string {
	out := make([]string, 0, len(collections))
	for _, c := range collections {
		out = append(out, c.String())
	}
	return out
}

func printSummary(cmd *cobra.Command, summary updater.Summary) {
	if len(summary.Collections) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(summary.Collections))
	for _, c := range summary.Collections {
		rows = append(rows, []string{
			c.Collection,
			strconv.Itoa(c.Records),
			strconv.Itoa(c.Items),
			strconv.Itoa(c.Updated),
			strconv.Itoa(c.Ignored),
			strconv.Itoa(c.Skipped),
			strconv.Itoa(c.Failed),
			c.Duration.Round(time.Millisecond).String(),
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Collection", "Records", "Items", "Updated", "Ignored", "Skipped", "Failed", "Duration"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))

	outcomes := make(map[string]int)
	for _, c := range summary.Collections {
		for outcome, n := range c.Outcomes {
			outcomes[outcome] += n
		}
	}
	if len(outcomes) > 0 {
		title := cases.Title(language.English)
		fmt.Fprintln(out, "Skipped or failed:")
		for _, outcome := range slices.Sorted(maps.Keys(outcomes)) {
			label := title.String(strings.ReplaceAll(outcome, "_", " "))
			fmt.Fprintf(out, "  %-22s %d\n", label, outcomes[outcome])
		}
	}
	fmt.Fprintf(out, "Run %s updated %d entries in %s\n", summary.RunID, summary.Updated(), summary.Duration.Round(time.Millisecond))
}
