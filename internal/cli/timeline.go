package cli

import (
	"github.com/spf13/cobra"

	"p2p-crisis-collector/internal/models"
	"p2p-crisis-collector/internal/timeline"
)

func newTimelineCmd(app *App) *cobra.Command {
	var (
		country     string
		eventType   string
		minPriority int
		export      bool
	)

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show or export the crisis event catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			var events []models.CrisisEvent
			switch {
			case country != "":
				events = timeline.EventsByCountry(country)
			case eventType != "":
				events = timeline.EventsByType(eventType)
			default:
				events = timeline.PriorityEvents(minPriority)
			}

			if export {
				if err := app.requireDeps(false, true); err != nil {
					return err
				}
				path, err := app.Store.SaveTimeline(timeline.All())
				if err != nil {
					return err
				}
				output.Success("Saved %s", path)
				for _, cc := range timeline.Countries() {
					ccPath, err := app.Store.SaveCountryTimeline(cc, timeline.EventsByCountry(cc))
					if err != nil {
						return err
					}
					output.Printf("  %s: %s\n", cc, ccPath)
				}
			}

			if output.IsJSON() {
				return output.JSON(events)
			}
			output.Bold("Crisis timeline (%d events)", len(events))
			for _, e := range events {
				output.Printf("  %s  %-3s sev=%d pri=%d  %-22s %s\n",
					e.Date.Format("2006-01-02"), e.CountryCode,
					e.ImpactSeverity, e.DataCollectionPriority, e.EventType, e.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "only one country's events, date ascending")
	cmd.Flags().StringVar(&eventType, "type", "", "only events of one type")
	cmd.Flags().IntVar(&minPriority, "min-priority", 1, "minimum collection priority")
	cmd.Flags().BoolVar(&export, "export", false, "write timeline CSV projections")
	return cmd
}
