package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"f1dashboard/pkg/config"
	"f1dashboard/pkg/datasource"
	"f1dashboard/pkg/log"
)

const envPrefix = "F1D"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "f1dashboard",
	Short: "Formula 1 race data dashboard",
	Long: `Explore race results and lap data: compare drivers, chart lap times,
draw circuit maps and follow a race replay in the browser.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	d := config.Default()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.f1dashboard.yml)")

	pf.String("datasource", d.Datasource.Kind, "where race data comes from: synthetic or sqlite")
	pf.String("db", d.Datasource.DB, "path of the sqlite database")
	pf.Int64("seed", d.Datasource.Seed, "seed of the synthetic datasource")
	pf.String("addr", d.Server.Addr, "listen address of the web server")
	pf.Duration("read-timeout", d.Server.ReadTimeout, "web server read timeout")
	pf.Duration("write-timeout", d.Server.WriteTimeout, "web server write timeout")
	pf.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	pf.String("log-format", d.Log.Format, "log format (text or json)")
	pf.Int("width", d.Render.Width, "width of rendered images")
	pf.Int("height", d.Render.Height, "height of rendered images")
	pf.Float64("padding", d.Render.Padding, "padding around the track in rendered maps")
	pf.Float64("flatness", d.Render.Flatness, "tolerance used to flatten circuit curves")
	pf.Int("replay-race", d.Replay.Race, "race replayed on the live map, 0 disables it")
	pf.Duration("replay-tick", d.Replay.Tick, "interval between live map updates")
	pf.StringSlice("notify-webhook", nil, "URL posted the podium when the replay finishes (repeatable)")
	pf.Float64("replay-speed", d.Replay.Speed, "race seconds replayed per second")

	cobra.CheckErr(viper.BindPFlags(pf))

	// add commands here
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newRacesCmd())
	rootCmd.AddCommand(newResultsCmd())
	rootCmd.AddCommand(newCompareCmd())
	rootCmd.AddCommand(newLapsCmd())
	rootCmd.AddCommand(newRenderCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".f1dashboard" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".f1dashboard")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --log-level to F1D_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}

// env bundles what every command needs: the resolved configuration, a
// logger and the configured repository.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	repo   datasource.Repository
}

func setup() (*env, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	logger, err := log.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	repo, err := datasource.Open(cfg.Datasource, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, repo: repo}, nil
}

func (e *env) close() {
	if err := e.repo.Close(); err != nil {
		e.logger.Warn("closing datasource", zap.Error(err))
	}
	_ = e.logger.Sync()
}
