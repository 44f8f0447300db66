package cli

import (
	"time"

	"github.com/spf13/cobra"

	apperrors "p2p-crisis-collector/internal/errors"
	"p2p-crisis-collector/internal/models"
)

func newSummaryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show collection run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireDeps(false, true); err != nil {
				return err
			}
			output := NewOutput(cmd)

			runs, err := app.Store.CollectionLog()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				return apperrors.Wrap(apperrors.ErrNoData, "collection log is empty")
			}

			if limit > 0 && len(runs) > limit {
				runs = runs[len(runs)-limit:]
			}

			if output.IsJSON() {
				return output.JSON(runs)
			}

			output.Bold("Collection history (%d runs)", len(runs))
			for _, run := range runs {
				marker := string(run.Status)
				if run.Status != models.RunSuccess && run.ErrorMessage != "" {
					marker += ": " + run.ErrorMessage
				}
				output.Printf("  %s  %-14s %-3s %4d ads (%d buy / %d sell)  %s\n",
					run.Timestamp.Format(time.RFC3339), run.Platform, run.CountryCode,
					run.AdsCollected, run.BuyAds, run.SellAds, marker)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "show only the most recent N runs")

	cmd.AddCommand(newSummaryDailyCmd(app))
	return cmd
}

func newSummaryDailyCmd(app *App) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Build the daily summary table for one date",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireDeps(false, true); err != nil {
				return err
			}
			output := NewOutput(cmd)

			day := time.Now().UTC()
			if date != "" {
				parsed, err := time.Parse("2006-01-02", date)
				if err != nil {
					return apperrors.NewValidationError("date", date, "expected YYYY-MM-DD")
				}
				day = parsed
			}

			path, err := app.Store.CreateDailySummary(day)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Success("Saved %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "summary date, YYYY-MM-DD (default today)")
	return cmd
}
