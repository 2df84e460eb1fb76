package cli

import (
	"errors"
	"fmt"
	"math"

	"github.com/Dicklesworthstone/kvidx"
	"github.com/Dicklesworthstone/kvidx/internal/tui/components"
	"github.com/spf13/cobra"
)

var (
	flagScanStart uint64
	flagScanEnd   uint64
	flagScanLimit int
)

func init() {
	scanCmd.Flags().Uint64Var(&flagScanStart, "start", 0, "first id to include")
	scanCmd.Flags().Uint64Var(&flagScanEnd, "end", math.MaxUint64, "last id to include")
	scanCmd.Flags().IntVar(&flagScanLimit, "limit", 100, "maximum rows to print (0 = unlimited)")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List records in ascending id order as a table",
	Args:  cobra.NoArgs,
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	inst, closeFn, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	table := components.NewTable([]components.Column{
		{Header: "ID", MinWidth: 6},
		{Header: "TERM", MinWidth: 6},
		{Header: "CMD", MinWidth: 6},
		{Header: "LEN", MinWidth: 6},
	})

	cursor := flagScanStart
	first := true
	count := 0
	for {
		if flagScanLimit > 0 && count >= flagScanLimit {
			break
		}

		var rec kvidx.Record
		if first {
			rec, err = inst.Get(cmd.Context(), cursor)
			if errors.Is(err, kvidx.ErrNotFound) {
				rec, err = inst.GetNext(cmd.Context(), prevOf(cursor))
			}
			first = false
		} else {
			rec, err = inst.GetNext(cmd.Context(), cursor)
		}
		if errors.Is(err, kvidx.ErrNotFound) {
			break
		}
		if err != nil {
			return fmt.Errorf("scanning: %w", err)
		}
		if rec.ID > flagScanEnd {
			break
		}

		table.AddRow(fmt.Sprint(rec.ID), fmt.Sprint(rec.Term), fmt.Sprint(rec.Cmd), fmt.Sprint(len(rec.Data)))
		cursor = rec.ID
		count++
	}

	fmt.Fprintln(cmd.OutOrStdout(), table.Render())
	return nil
}

// prevOf returns id-1, saturating at 0 — scan's start bound is
// inclusive but GetNext's cursor argument is exclusive.
func prevOf(id uint64) uint64 {
	if id == 0 {
		return 0
	}
	return id - 1
}
