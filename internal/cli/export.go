package cli

import (
	"fmt"
	"math"
	"os"

	"github.com/Dicklesworthstone/kvidx"
	"github.com/Dicklesworthstone/kvidx/internal/codec"
	"github.com/spf13/cobra"
)

var (
	flagExportFormat      string
	flagExportStart       uint64
	flagExportEnd         uint64
	flagExportIncludeMeta bool
	flagExportOut         string
)

func init() {
	exportCmd.Flags().StringVar(&flagExportFormat, "format", "binary", "export format: binary, json, or csv")
	exportCmd.Flags().Uint64Var(&flagExportStart, "start", 0, "first id to include")
	exportCmd.Flags().Uint64Var(&flagExportEnd, "end", math.MaxUint64, "last id to include")
	exportCmd.Flags().BoolVar(&flagExportIncludeMeta, "include-meta", true, "passed to the format writer; every format writes term and cmd whatever its value, and none writes created")
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "output file (default: stdout)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write records in [--start, --end] to a portable format",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	inst, closeFn, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	if flagExportOut != "" {
		f, err := os.Create(flagExportOut)
		if err != nil {
			return fmt.Errorf("creating %s: %w", flagExportOut, err)
		}
		defer f.Close()
		out = f
	}

	w, err := codec.NewWriter(out, flagExportFormat)
	if err != nil {
		return err
	}

	var progress kvidx.ProgressFunc
	if flagExportOut != "" {
		progress = func(done, total uint64) bool {
			fmt.Fprintf(cmd.ErrOrStderr(), "\rexported %d/%d", done, total)
			return true
		}
	}

	if err := inst.ExportData(cmd.Context(), w, flagExportFormat, flagExportStart, flagExportEnd, flagExportIncludeMeta, progress); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if progress != nil {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	return nil
}
