package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"knowledge-quiz/internal/app"
	"knowledge-quiz/internal/domain"
)

// NewLeaderboardCmd inspects and clears the stored leaderboard.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Inspect or clear the leaderboard",
	}

	var limit int
	var yes bool

	list := &cobra.Command{
		Use:   "list",
		Short: "Print every stored entry, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLeaderboard(cmd, *configPath, func(board *app.Leaderboard) error {
				printEntries(cmd.OutOrStdout(), board.List(cmd.Context()))
				return nil
			})
		},
	}

	top := &cobra.Command{
		Use:   "top",
		Short: "Print the best entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLeaderboard(cmd, *configPath, func(board *app.Leaderboard) error {
				printEntries(cmd.OutOrStdout(), board.TopRanked(cmd.Context(), limit))
				return nil
			})
		},
	}
	top.Flags().IntVar(&limit, "limit", 5, "number of entries (0 for all)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			return withLeaderboard(cmd, *configPath, func(board *app.Leaderboard) error {
				c := board.RequestClear()
				if err := board.Clear(cmd.Context(), c.ID); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "leaderboard cleared")
				return nil
			})
		},
	}
	clearCmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	cmd.AddCommand(list, top, clearCmd)
	return cmd
}

func withLeaderboard(cmd *cobra.Command, configPath string, fn func(*app.Leaderboard) error) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	d, err := buildDeps(cmd.Context(), cfg, logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel)), false)
	if err != nil {
		return err
	}
	defer d.Close()

	settings := quizSettings(cfg)
	return fn(app.NewLeaderboard(d.records, settings.Capacity, logger))
}

func printEntries(out io.Writer, entries []domain.LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "no entries")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTOPIC\tSCORE\tPERCENT")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d%%\n", e.Date, e.Topic, e.Score, e.Total, e.Percentage)
	}
	_ = w.Flush()
}
