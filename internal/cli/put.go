package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/Dicklesworthstone/kvidx"
	"github.com/spf13/cobra"
)

var (
	flagPutTerm      uint64
	flagPutCmd       uint64
	flagPutCondition string
	flagPutFile      string
)

func init() {
	putCmd.Flags().Uint64Var(&flagPutTerm, "term", 0, "term to store alongside the value")
	putCmd.Flags().Uint64Var(&flagPutCmd, "cmd", 0, "command tag to store alongside the value")
	putCmd.Flags().StringVar(&flagPutCondition, "if", "always", "write condition: always, not-exists, exists")
	putCmd.Flags().StringVarP(&flagPutFile, "file", "f", "", "read the value from this file instead of argv")
	rootCmd.AddCommand(putCmd)
}

var putCmd = &cobra.Command{
	Use:   "put <id> [value]",
	Short: "Insert or overwrite the record at id",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runPut,
}

func conditionFromFlag(s string) (kvidx.Condition, error) {
	switch s {
	case "always", "":
		return kvidx.Always, nil
	case "not-exists":
		return kvidx.IfNotExists, nil
	case "exists":
		return kvidx.IfExists, nil
	default:
		return 0, fmt.Errorf("unknown --if value %q (want always, not-exists, or exists)", s)
	}
}

func runPut(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	cond, err := conditionFromFlag(flagPutCondition)
	if err != nil {
		return err
	}

	var data []byte
	switch {
	case flagPutFile != "":
		data, err = os.ReadFile(flagPutFile)
		if err != nil {
			return fmt.Errorf("reading %s: %w", flagPutFile, err)
		}
	case len(args) == 2:
		data = []byte(args[1])
	default:
		data, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}

	inst, closeFn, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	if err := inst.InsertEx(cmd.Context(), id, flagPutTerm, flagPutCmd, data, cond); err != nil {
		return fmt.Errorf("put %d: %w", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok id=%d len=%d\n", id, len(data))
	return nil
}
