package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"animap/internal/config"
	"animap/internal/index"
	"animap/internal/mapping"
	"animap/internal/services"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Inspect the persisted index",
	}

	indexCmd.AddCommand(newIndexListCommand(ctx))
	indexCmd.AddCommand(newIndexShowCommand(ctx))
	indexCmd.AddCommand(newIndexStatsCommand(ctx))

	return indexCmd
}

func newIndexListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <collection>",
		Short: "List the entries of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, err := mapping.ParseCollection(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *index.Store) error {
				entries, err := store.Collection(collection).List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintf(out, "No entries in %s\n", collection)
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.Key,
						strconv.Itoa(e.Revision),
						strconv.Itoa(e.Hashes),
						formatTime(e.UpdatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Key", "Revision", "Hashes", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newIndexShowCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <collection> <key>",
		Short: "Print the stored record of one entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, err := mapping.ParseCollection(args[0])
			if err != nil {
				return err
			}
			key := args[1]
			return ctx.withStore(func(_ *config.Config, store *index.Store) error {
				entry, err := store.Collection(collection).Get(cmd.Context(), key)
				if err != nil {
					return err
				}
				if entry == nil {
					return services.Wrap(services.ErrNotFound, "index", "show",
						fmt.Sprintf("no entry %s in %s", key, collection), nil)
				}
				item, err := entry.Decode()
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("entry %s in %s has no record yet", key, collection)
				}
				return writeFormatted(cmd, format, item)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format (json or yaml)")
	return cmd
}

func newIndexStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-collection entry counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *index.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(stats) == 0 {
					fmt.Fprintf(out, "Index %s is empty\n", store.Path())
					return nil
				}
				rows := make([][]string, 0, len(stats))
				for _, st := range stats {
					rows = append(rows, []string{
						st.Collection,
						strconv.Itoa(st.Entries),
						strconv.Itoa(st.Hashes),
						formatTime(st.LastUpdated),
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Collection", "Entries", "Hashes", "Last Updated"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
