package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"p2p-crisis-collector/internal/collector"
	apperrors "p2p-crisis-collector/internal/errors"
	"p2p-crisis-collector/internal/platforms"
)

func newCollectCmd(app *App) *cobra.Command {
	var countries []string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect a P2P market snapshot",
		Long: `Collect current P2P advertisements from all platforms for the
configured countries, resolve official exchange rates, and persist
everything to the CSV data tree.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireDeps(true, true); err != nil {
				return err
			}
			output := NewOutput(cmd)

			orch := collector.New(app.Config, app.Profiles, app.Store, app.Logger)
			summary := orch.CollectSnapshot(cmd.Context(), countries)

			return renderSummary(output, summary)
		},
	}

	cmd.Flags().StringSliceVar(&countries, "country", nil, "restrict to country codes (e.g. SD,VE)")

	cmd.AddCommand(newCollectCrisisCmd(app))
	cmd.AddCommand(newCollectContextCmd(app))
	return cmd
}

func newCollectCrisisCmd(app *App) *cobra.Command {
	var (
		country string
		from    string
		to      string
	)

	cmd := &cobra.Command{
		Use:   "crisis",
		Short: "Collect rates for a crisis window plus a current baseline",
		Long: `Collect official exchange rates over a historical crisis window
(daily for windows up to 90 days, weekly beyond) together with a
current P2P snapshot as the market baseline. Requires an API key for
a historical-capable rate source.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireDeps(true, true); err != nil {
				return err
			}
			output := NewOutput(cmd)

			start, err := time.Parse("2006-01-02", from)
			if err != nil {
				return apperrors.NewValidationError("from", from, "expected YYYY-MM-DD")
			}
			end, err := time.Parse("2006-01-02", to)
			if err != nil {
				return apperrors.NewValidationError("to", to, "expected YYYY-MM-DD")
			}

			orch := collector.New(app.Config, app.Profiles, app.Store, app.Logger)
			summary, err := orch.CollectCrisisPeriod(cmd.Context(), country, start, end)
			if err != nil {
				return err
			}
			return renderSummary(output, summary)
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "country code (required)")
	cmd.Flags().StringVar(&from, "from", "", "window start, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&to, "to", "", "window end, YYYY-MM-DD (required)")
	cmd.MarkFlagRequired("country")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	return cmd
}

func newCollectContextCmd(app *App) *cobra.Command {
	var (
		coins []string
		fiats []string
	)

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Collect market-context prices from CoinGecko",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireDeps(true, true); err != nil {
				return err
			}
			output := NewOutput(cmd)

			if len(fiats) == 0 {
				fiats = append([]string{"USD"}, profileFiats(app)...)
			}

			client := platforms.NewClient(15 * time.Second)
			gecko := platforms.NewCoinGecko(client, app.Logger)

			prices, err := gecko.CurrentPrices(cmd.Context(), coins, fiats)
			if err != nil {
				return err
			}

			path, err := app.Store.SaveContextPrices(prices)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(prices)
			}
			output.Success("Saved %d context prices to %s", len(prices), path)
			for _, p := range prices {
				output.Printf("  %-12s %8s  %.6f\n", p.Instrument, p.VsCurrency, p.Price)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&coins, "coins", []string{"bitcoin", "tether", "ethereum"}, "CoinGecko coin IDs")
	cmd.Flags().StringSliceVar(&fiats, "fiats", nil, "fiat codes (default: USD plus profile fiats)")
	return cmd
}

func profileFiats(app *App) []string {
	var fiats []string
	for _, p := range app.Profiles.List() {
		fiats = append(fiats, p.Fiat)
	}
	return fiats
}

func renderSummary(output *Output, summary collector.Summary) error {
	if output.IsJSON() {
		return output.JSON(summary)
	}

	output.Bold("Collection %s", summary.CollectionID)
	output.Printf("  Total ads:  %d\n", summary.TotalAds)
	output.Printf("  Countries:  %d\n", summary.CountriesProcessed)
	output.Printf("  Rates:      %d\n", summary.RatesResolved)
	output.Printf("  Duration:   %s\n", summary.Duration.Round(time.Millisecond))

	for name, stats := range summary.PlatformStats {
		marker := "ok"
		if !stats.Succeeded {
			marker = "errors"
		}
		output.Printf("  %-14s %5d ads across %d countries (%s)\n", name, stats.Ads, stats.Countries, marker)
	}

	if len(summary.Errors) > 0 {
		output.Warning("%d errors:", len(summary.Errors))
		for _, e := range summary.Errors {
			output.Printf("  - %s\n", strings.TrimSpace(e))
		}
	}
	return nil
}
