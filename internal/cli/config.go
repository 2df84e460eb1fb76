package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage kvidx-inspect's own configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default ~/.kvidx/config.toml",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := writeDefaultConfig(defaultConfig{
			StorePath: "./kvidx.db",
			LogLevel:  "info",
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}
