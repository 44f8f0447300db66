package cli

import (
	"time"

	"github.com/spf13/cobra"

	"p2p-crisis-collector/internal/correlation"
	apperrors "p2p-crisis-collector/internal/errors"
	"p2p-crisis-collector/internal/models"
	"p2p-crisis-collector/internal/platforms"
	"p2p-crisis-collector/internal/timeline"
)

func newCorrelateCmd(app *App) *cobra.Command {
	var (
		instruments []string
		fiat        string
		days        int
		window      int
		minPriority int
		country     string
		offline     bool
	)

	cmd := &cobra.Command{
		Use:   "correlate",
		Short: "Correlate crisis events with crypto price moves",
		Long: `Fetch daily historical price series, pair them with the crisis event
catalog, and write pre/post window statistics per event and instrument.
With --offline, previously saved series are used instead of the API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireDeps(false, true); err != nil {
				return err
			}
			output := NewOutput(cmd)

			events := timeline.PriorityEvents(minPriority)
			if country != "" {
				events = timeline.EventsByCountry(country)
			}
			if len(events) == 0 {
				return apperrors.Wrap(apperrors.ErrNoData, "no crisis events match the selection")
			}

			series := make(map[string][]models.PricePoint)
			if offline {
				for _, inst := range instruments {
					points, err := app.Store.LoadHistoricalSeries(inst)
					if err != nil {
						output.Warning("No saved series for %s: %v", inst, err)
						continue
					}
					series[inst] = points
				}
			} else {
				client := platforms.NewClient(15 * time.Second)
				compare := platforms.NewCryptoCompare(client, app.Logger)
				for _, inst := range instruments {
					points, err := compare.HistoricalDaily(cmd.Context(), inst, fiat, days)
					if err != nil {
						output.Warning("Fetching %s failed: %v", inst, err)
						continue
					}
					series[inst] = points
					if _, err := app.Store.SaveHistoricalSeries(inst, points); err != nil {
						output.Warning("Saving %s series failed: %v", inst, err)
					}
				}
			}
			if len(series) == 0 {
				return apperrors.Wrap(apperrors.ErrNoData, "no price series available")
			}

			engine := correlation.NewEngine(app.Logger, window)
			results := engine.Correlate(events, series)
			if len(results) == 0 {
				return apperrors.Wrap(apperrors.ErrNoData, "no event windows overlap the series")
			}

			path, err := app.Store.SaveCorrelationResults(results)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(results)
			}
			output.Bold("Crisis correlations (%d pairs)", len(results))
			for _, r := range results {
				output.Printf("  %s  %-3s %-5s %+8.2f%% price  %+8.2f%% volatility  (%s)\n",
					r.EventDate.Format("2006-01-02"), r.CountryCode, r.Instrument,
					r.PriceChangePct, r.VolatilityChangePct, r.EventTitle)
			}
			output.Success("Saved %s", path)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&instruments, "instruments", []string{"BTC", "ETH", "USDT"}, "crypto symbols")
	cmd.Flags().StringVar(&fiat, "fiat", "USD", "pricing currency")
	cmd.Flags().IntVar(&days, "days", 2000, "days of history to fetch")
	cmd.Flags().IntVar(&window, "window", correlation.DefaultWindowDays, "analysis half-window in days")
	cmd.Flags().IntVar(&minPriority, "min-priority", 1, "minimum event collection priority")
	cmd.Flags().StringVar(&country, "country", "", "restrict to one country's events")
	cmd.Flags().BoolVar(&offline, "offline", false, "use saved series instead of the API")
	return cmd
}
