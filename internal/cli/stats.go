package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print storage usage statistics for the store",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	inst, closeFn, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	stats, err := inst.GetStats(cmd.Context())
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "keys:          %d\n", stats.KeyCount)
	fmt.Fprintf(out, "min key:       %d (present=%t)\n", stats.MinID, stats.HasMinMax)
	fmt.Fprintf(out, "max key:       %d (present=%t)\n", stats.MaxID, stats.HasMinMax)
	fmt.Fprintf(out, "data size:     %d bytes\n", stats.DataSizeBytes)
	fmt.Fprintf(out, "page count:    %d\n", stats.PageCount)
	fmt.Fprintf(out, "page size:     %d bytes\n", stats.PageSize)
	fmt.Fprintf(out, "freelist:      %d pages\n", stats.FreePages)
	fmt.Fprintf(out, "file size:     %d bytes\n", stats.FileSizeBytes)
	fmt.Fprintf(out, "wal size:      %d bytes\n", stats.WALSizeBytes)
	return nil
}
