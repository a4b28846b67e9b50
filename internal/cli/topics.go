package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewTopicsCmd lists the topics the configured bank serves.
func NewTopicsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List quiz topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			d, err := buildDeps(cmd.Context(), cfg, logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel)), false)
			if err != nil {
				return err
			}
			defer d.Close()

			topics, err := d.topics.ListTopics(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tQUESTIONS\tDESCRIPTION")
			for _, t := range topics {
				fmt.Fprintf(w, "%s\t%d\t%s\n", t.ID, t.QuestionCount, t.Description)
			}
			return w.Flush()
		},
	}
}
