package cli

import (
	"strings"

	"github.com/spf13/cobra"

	apperrors "p2p-crisis-collector/internal/errors"
	"p2p-crisis-collector/internal/models"
	"p2p-crisis-collector/internal/premium"
	"p2p-crisis-collector/internal/rates"
	"p2p-crisis-collector/internal/store"
)

func platformFilter(s string) models.Platform {
	return models.Platform(strings.ToLower(strings.TrimSpace(s)))
}

func newPremiumsCmd(app *App) *cobra.Command {
	var (
		date     string
		platform string
	)

	cmd := &cobra.Command{
		Use:   "premiums",
		Short: "Calculate P2P price premiums against official rates",
		Long: `Load collected advertisements, resolve current official rates, and
write per-country premium and market-structure aggregates.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireDeps(true, true); err != nil {
				return err
			}
			output := NewOutput(cmd)

			ads, err := app.Store.LoadRawAds(store.AdFilter{
				Platform: platformFilter(platform),
				Date:     date,
			})
			if err != nil {
				return err
			}
			if len(ads) == 0 {
				return apperrors.Wrap(apperrors.ErrNoData, "no advertisements loaded, run collect first")
			}

			resolver := rates.NewResolver(app.Config.Rates, app.Logger)
			table, err := resolver.CurrentRates(cmd.Context(), "USD")
			if err != nil {
				return err
			}

			calc := premium.NewCalculator(app.Logger)
			results := calc.CountryPremiums(ads, table)
			stats := calc.MarketStructure(ads)

			premiumPath, err := app.Store.SavePremiumResults(results)
			if err != nil {
				return err
			}
			statsPath, err := app.Store.SaveCountryStats(stats)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"premiums":         results,
					"market_structure": stats,
				})
			}

			output.Bold("Premiums over official rates (%d ads)", len(ads))
			for _, r := range results {
				output.Printf("  %-3s %-5s avg %+7.2f%%  median %+7.2f%%  (%d ads, %d buy / %d sell)\n",
					r.CountryCode, r.Fiat, r.PremiumAvg, r.PremiumMedian,
					r.TotalAds, r.BuyAds, r.SellAds)
			}
			output.Println()
			for _, s := range stats {
				output.Printf("  %-3s %-24s crisis=%s\n", s.CountryCode, s.MarketPattern, s.CrisisIndicator)
			}
			output.Success("Saved %s and %s", premiumPath, statsPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "restrict to one collection date, YYYY-MM-DD")
	cmd.Flags().StringVar(&platform, "platform", "", "restrict to one platform")
	return cmd
}
