package cli

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	apperrors "p2p-crisis-collector/internal/errors"
	"p2p-crisis-collector/internal/models"
	"p2p-crisis-collector/internal/rates"
)

func newRatesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Resolve and store current official exchange rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireDeps(true, true); err != nil {
				return err
			}
			output := NewOutput(cmd)

			resolver := rates.NewResolver(app.Config.Rates, app.Logger)
			table, err := resolver.CurrentRates(cmd.Context(), "USD")
			if err != nil {
				return err
			}

			now := models.Now()
			var records []models.ExchangeRate
			for _, p := range app.Profiles.List() {
				rate, ok := table[p.Fiat]
				if !ok {
					output.Warning("No rate for %s (%s)", p.CountryCode, p.Fiat)
					continue
				}
				records = append(records, models.ExchangeRate{
					Timestamp:    now,
					FiatCurrency: p.Fiat,
					USDRate:      rate,
					Source:       "api_composite",
				})
			}

			if err := app.Store.SaveExchangeRates(records, ""); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(records)
			}
			sort.Slice(records, func(i, j int) bool {
				return records[i].FiatCurrency < records[j].FiatCurrency
			})
			for _, r := range records {
				output.Printf("  1 USD = %12.4f %s\n", r.USDRate, r.FiatCurrency)
			}
			output.Success("Saved %d rates", len(records))
			return nil
		},
	}

	cmd.AddCommand(newRatesHistoryCmd(app))
	return cmd
}

func newRatesHistoryCmd(app *App) *cobra.Command {
	var (
		country string
		from    string
		to      string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Collect historical rates over a date window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireDeps(true, true); err != nil {
				return err
			}
			output := NewOutput(cmd)

			profile, err := app.Profiles.ByCode(country)
			if err != nil {
				return err
			}
			start, err := time.Parse("2006-01-02", from)
			if err != nil {
				return apperrors.NewValidationError("from", from, "expected YYYY-MM-DD")
			}
			end, err := time.Parse("2006-01-02", to)
			if err != nil {
				return apperrors.NewValidationError("to", to, "expected YYYY-MM-DD")
			}

			resolver, err := rates.NewHistoricalResolver(app.Config.Rates, app.Logger)
			if err != nil {
				return err
			}

			records, err := resolver.CollectCrisisPeriodRates(cmd.Context(), profile, start, end)
			if err != nil {
				return err
			}
			if err := app.Store.SaveExchangeRates(records, ""); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(records)
			}
			for _, r := range records {
				output.Printf("  %s  1 USD = %12.4f %s\n",
					r.Timestamp.Format("2006-01-02"), r.USDRate, r.FiatCurrency)
			}
			output.Success("Saved %d historical rates for %s", len(records), profile.Name)
			return nil
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
