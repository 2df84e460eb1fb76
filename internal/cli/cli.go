// Package cli implements the kvidx-inspect command tree: a small
// operator CLI/TUI over a kvidx store, one cobra command per file.
//
// Grounded on ry256-slb/internal/cli's layout (package-level flag vars,
// an init() registering each command against a shared rootCmd, RunE
// funcs that open a store and return wrapped errors) — retargeted from
// approval-request verbs (approve/reject/rollback/watch) to kvidx's own
// get/put/scan/export/import/stats/ttl/shell/watch verbs.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	flagStorePath string
	flagVerbose   bool

	logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&flagStorePath, "store", "s", "", "path to the kvidx store file (default: from config, or ./kvidx.db)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

var rootCmd = &cobra.Command{
	Use:   "kvidx-inspect",
	Short: "Inspect and operate a kvidx store",
	Long: `kvidx-inspect is a small operator CLI/TUI for a kvidx store.

It reads and writes records directly against the store file, bypassing
any running application — useful for debugging, scripted migrations, and
ad hoc operational tasks.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

// Execute runs the command tree; main just calls this and exits non-zero
// on error.
func Execute() error {
	return rootCmd.Execute()
}

// configDir returns ~/.kvidx, creating it if it doesn't yet exist.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".kvidx")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return dir, nil
}

// defaultConfig is written out by `kvidx-inspect config init` and read
// back by viper on every invocation; BurntSushi/toml encodes it here,
// and viper decodes it on read with its own TOML codec.
type defaultConfig struct {
	StorePath string `toml:"store_path"`
	LogLevel  string `toml:"log_level"`
}

func initConfig() {
	dir, err := configDir()
	if err != nil {
		logger.Debug("config dir unavailable, using flag/env/defaults only", "err", err)
		return
	}

	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath(dir)
	viper.SetEnvPrefix("KVIDX")
	viper.AutomaticEnv()
	viper.SetDefault("store_path", "./kvidx.db")
	viper.SetDefault("log_level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logger.Warn("reading config file", "err", err)
		}
	}
}

// writeDefaultConfig renders cfg to ~/.kvidx/config.toml, used by the
// `config init` subcommand to seed a fresh install.
func writeDefaultConfig(cfg defaultConfig) (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "config.toml")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	return path, nil
}

// resolveStorePath applies the --store flag, then KVIDX_STORE_PATH/
// config.toml's store_path, then the ./kvidx.db fallback, in that order.
func resolveStorePath() string {
	if flagStorePath != "" {
		return flagStorePath
	}
	if p := viper.GetString("store_path"); p != "" {
		return p
	}
	return "./kvidx.db"
}
