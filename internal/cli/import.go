package cli

import (
	"fmt"
	"os"

	"github.com/Dicklesworthstone/kvidx"
	"github.com/Dicklesworthstone/kvidx/internal/codec"
	"github.com/spf13/cobra"
)

var (
	flagImportFormat         string
	flagImportIn             string
	flagImportClearFirst     bool
	flagImportSkipDuplicates bool
)

func init() {
	importCmd.Flags().StringVar(&flagImportFormat, "format", "binary", "import format: binary, json, or csv")
	importCmd.Flags().StringVarP(&flagImportIn, "in", "i", "", "input file (default: stdin)")
	importCmd.Flags().BoolVar(&flagImportClearFirst, "clear-first", false, "delete every existing record before importing")
	importCmd.Flags().BoolVar(&flagImportSkipDuplicates, "skip-duplicates", false, "skip ids that already exist instead of overwriting them")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load records from a portable format",
	Args:  cobra.NoArgs,
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	inst, closeFn, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	in := cmd.InOrStdin()
	if flagImportIn != "" {
		f, err := os.Open(flagImportIn)
		if err != nil {
			return fmt.Errorf("opening %s: %w", flagImportIn, err)
		}
		defer f.Close()
		in = f
	}

	r, err := codec.NewReader(in, flagImportFormat)
	if err != nil {
		return err
	}

	var progress kvidx.ProgressFunc
	if flagImportIn != "" {
		progress = func(done, total uint64) bool {
			fmt.Fprintf(cmd.ErrOrStderr(), "\rimported %d", done)
			return true
		}
	}

	n, err := inst.ImportData(cmd.Context(), r, flagImportFormat, flagImportClearFirst, flagImportSkipDuplicates, progress)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	if progress != nil {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d records\n", n)
	return nil
}
