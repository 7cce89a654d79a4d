package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/r0zar/innkeeper/internal/control"
	"github.com/r0zar/innkeeper/internal/core/domain"
)

// statusCmd prints the latest validation outcome for every active quest.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest validation for each active quest",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := setup()

		app, err := control.New(cfg)
		if err != nil {
			slog.Error("Failed to initialize Innkeeper", "error", err)
			os.Exit(1)
		}
		defer app.Stop(context.Background())

		ctx := context.Background()
		quests, err := app.Quests.ListByStatus(ctx, domain.QuestStatusActive)
		if err != nil {
			slog.Error("Failed to list quests", "error", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "QUEST\tCRITERIA\tSTATUS\tADDRESSES\tVALIDATED AT\tNEXT RUN")
		for _, q := range quests {
			latest, err := app.Validations.GetLatestByQuest(ctx, q.ID)
			if err != nil {
				slog.Error("Failed to fetch validation", "quest_id", q.ID, "error", err)
				continue
			}
			if latest == nil {
				fmt.Fprintf(w, "%s\t%s\tnever validated\t-\t-\t-\n", q.Title, q.Criteria.Type)
				continue
			}
			next := "-"
			if latest.NextValidationAt != nil {
				next = latest.NextValidationAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				q.Title, q.Criteria.Type, latest.Status, len(latest.ValidAddresses),
				latest.ValidatedAt.Format("2006-01-02 15:04:05"), next,
			)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
