package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"p2p-crisis-collector/internal/config"
	apperrors "p2p-crisis-collector/internal/errors"
	"p2p-crisis-collector/internal/logging"
	"p2p-crisis-collector/internal/store"
)

var (
	errProfilesUnavailable = apperrors.NewConfigError("profiles", "country profiles not loaded, check countries.yml", nil)
	errStoreUnavailable    = apperrors.NewConfigError("storage", "data directory not initialized", nil)
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Profiles *config.Profiles
	Store    store.Store
	Logger   zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	profiles, err := config.LoadProfiles(cfg.Collection.ProfilesPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.Collection.ProfilesPath).
			Msg("country profiles unavailable, collection commands will fail")
	} else {
		app.Profiles = profiles
		logger.Debug().Int("countries", len(profiles.List())).Msg("country profiles loaded")
	}

	csvStore, err := store.NewCSVStore(cfg.Storage.DataDir)
	if err != nil {
		logger.Warn().Err(err).Str("dir", cfg.Storage.DataDir).
			Msg("data directory unavailable, persistence disabled")
	} else {
		app.Store = csvStore
		logger.Debug().Str("dir", cfg.Storage.DataDir).Msg("CSV store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "p2p-collector",
		Short: "Crisis-market P2P cryptocurrency data collector",
		Long: `p2p-collector gathers peer-to-peer cryptocurrency market data from
public exchange APIs for countries in economic crisis, resolves official
exchange rates, and derives price premiums and crisis correlations.

Use 'p2p-collector help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/p2p-crisis-collector)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCollectCmd(app))
	rootCmd.AddCommand(newRatesCmd(app))
	rootCmd.AddCommand(newPremiumsCmd(app))
	rootCmd.AddCommand(newCorrelateCmd(app))
	rootCmd.AddCommand(newTimelineCmd(app))
	rootCmd.AddCommand(newSummaryCmd(app))
	rootCmd.AddCommand(newProbeCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("p2p-collector v%s\n", Version)
			}
		},
	}
}

// requireDeps fails a command early when profile or store setup did
// not succeed at startup.
func (a *App) requireDeps(needProfiles, needStore bool) error {
	if needProfiles && a.Profiles == nil {
		return errProfilesUnavailable
	}
	if needStore && a.Store == nil {
		return errStoreUnavailable
	}
	return nil
}
