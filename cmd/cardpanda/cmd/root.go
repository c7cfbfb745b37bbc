package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/cards"
	"github.com/MeKo-Tech/cardpanda/internal/config"
	"github.com/MeKo-Tech/cardpanda/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// annotationBinaryOutput marks commands that may stream binary data to
// stdout; their logs go to stderr instead.
const annotationBinaryOutput = "cardpanda/binary-output"

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cardpanda",
	Short: "Loyalty card barcode store and renderer",
	Long: `cardpanda keeps loyalty cards as a payload and a barcode type and
regenerates a scannable barcode from them on demand.

This tool provides:
- Normalization of detector symbology identifiers to canonical types
- Deterministic barcode rendering with a fallback chain
- A YAML card store with PDF export
- An HTTP and WebSocket server for capture and rendering

Examples:
  cardpanda render 4006381333931 --type ean13 -o card.png
  cardpanda normalize org.iso.QRCode
  cardpanda card add --name Bakery --payload 12345678 --type ean8
  cardpanda export -o cards.pdf --page-size A5
  cardpanda serve --port 8080`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.PersistentFlags().GetBool("version")
		if v {
			ver, commit, date := version.Info()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cardpanda version %s\n", ver)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", commit)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Date: %s\n", date)
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/cardpanda, /etc/cardpanda)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("store", "", "card store file (default $XDG_DATA_HOME/cardpanda/cards.yaml)")
	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if globalConfig == nil {
			initConfig()
		}
		cfg := GetConfig()

		var out io.Writer = os.Stdout
		if cmd.Annotations[annotationBinaryOutput] == "true" {
			out = os.Stderr
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level: logLevel(cfg),
		})))
	}
}

func logLevel(cfg *config.Config) slog.Level {
	if cfg.Verbose {
		return slog.LevelDebug
	}
	switch cfg.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = configLoader.Load()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the global configuration with bound CLI flags applied.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}

	// Flag binding happens after the initial load, so unmarshal again.
	var cfg config.Config
	if err := GetConfigLoader().GetViper().Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling updated configuration: %v\n", err)
		return globalConfig
	}
	return &cfg
}

// GetConfigLoader returns the global configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}

// openStore opens the card store named by the configuration.
func openStore(cfg *config.Config) (*cards.FileStore, error) {
	path := cfg.Store.Path
	if path == "" {
		path = config.DefaultStorePath()
	}
	store, err := cards.OpenFileStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open card store: %w", err)
	}
	slog.Debug("Opened card store", "path", path)
	return store, nil
}

// newRenderer builds a renderer over the configured encoder registry.
func newRenderer(cfg *config.Config) (*barcode.Renderer, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("invalid render.disabled_encoders: %w", err)
	}
	return barcode.NewRenderer(reg, barcode.WithLogger(slog.Default())), nil
}
