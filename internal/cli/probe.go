package cli

import (
	"time"

	"github.com/spf13/cobra"

	"p2p-crisis-collector/internal/platforms"
)

func newProbeCmd(app *App) *cobra.Command {
	var country string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Probe Binance for historical data capability",
		Long: `Replay the advertisement search with literal timestamp variants and
report whether the responses differ from the current baseline. A
diagnostic, not a collection path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireDeps(true, false); err != nil {
				return err
			}
			output := NewOutput(cmd)

			profile, err := app.Profiles.ByCode(country)
			if err != nil {
				return err
			}

			client := platforms.NewClient(10 * time.Second)
			binance := platforms.NewBinance(client, app.Logger, app.Config.Collection.MaxPagesBinance)

			historical, err := binance.ProbeHistorical(cmd.Context(), profile, app.Config.Collection.Asset)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"country":               profile.CountryCode,
					"historical_capability": historical,
				})
			}
			if historical {
				output.Warning("Responses differ across timestamp variants, historical access possible")
			} else {
				output.Info("Endpoint serves current data only")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&country, "country", "NG", "country code to probe with")
	return cmd
}
