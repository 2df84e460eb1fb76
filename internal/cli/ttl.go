package cli

import (
	"errors"
	"fmt"

	"github.com/Dicklesworthstone/kvidx"
	"github.com/spf13/cobra"
)

func init() {
	ttlCmd.AddCommand(ttlGetCmd, ttlSetCmd, ttlPersistCmd, ttlExpireScanCmd)
	rootCmd.AddCommand(ttlCmd)
}

var ttlCmd = &cobra.Command{
	Use:   "ttl",
	Short: "Inspect and manage per-key expiration",
}

var ttlGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print id's remaining lifetime in milliseconds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		inst, closeFn, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		ttl, err := inst.GetTTL(cmd.Context(), id)
		switch {
		case errors.Is(err, kvidx.ErrTTLNotFound):
			fmt.Fprintf(cmd.OutOrStdout(), "id %d: not found\n", id)
		case errors.Is(err, kvidx.ErrTTLNone):
			fmt.Fprintf(cmd.OutOrStdout(), "id %d: no expiration set\n", id)
		case err != nil:
			return fmt.Errorf("ttl get %d: %w", id, err)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "id %d: %dms remaining\n", id, ttl)
		}
		return nil
	},
}

var flagTTLSetMs int64

var ttlSetCmd = &cobra.Command{
	Use:   "set <id>",
	Short: "Set id to expire --ms milliseconds from now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		inst, closeFn, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		if err := inst.SetExpire(cmd.Context(), id, flagTTLSetMs); err != nil {
			return fmt.Errorf("ttl set %d: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "id %d expires in %dms\n", id, flagTTLSetMs)
		return nil
	},
}

var ttlPersistCmd = &cobra.Command{
	Use:   "persist <id>",
	Short: "Remove any expiration set on id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		inst, closeFn, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		if err := inst.Persist(cmd.Context(), id); err != nil {
			return fmt.Errorf("ttl persist %d: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "id %d: expiration cleared\n", id)
		return nil
	},
}

var flagExpireScanMax uint64

var ttlExpireScanCmd = &cobra.Command{
	Use:   "expire-scan",
	Short: "Sweep expired records out of the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, closeFn, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		n, err := inst.ExpireScan(cmd.Context(), flagExpireScanMax)
		if err != nil {
			return fmt.Errorf("expire-scan: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired records\n", n)
		return nil
	},
}

func init() {
	ttlSetCmd.Flags().Int64Var(&flagTTLSetMs, "ms", 60000, "milliseconds from now until expiration")
	ttlExpireScanCmd.Flags().Uint64Var(&flagExpireScanMax, "max", 0, "maximum records to sweep (0 = unlimited)")
}
