package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Dicklesworthstone/kvidx"
	"github.com/spf13/cobra"
)

var flagGetRaw bool

func init() {
	getCmd.Flags().BoolVar(&flagGetRaw, "raw", false, "print only the raw value bytes, no metadata")
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch the record at id",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	inst, closeFn, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	rec, err := inst.Get(cmd.Context(), id)
	if errors.Is(err, kvidx.ErrNotFound) {
		return fmt.Errorf("id %d: not found", id)
	}
	if err != nil {
		return fmt.Errorf("get %d: %w", id, err)
	}

	if flagGetRaw {
		cmd.OutOrStdout().Write(rec.Data)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "id=%d term=%d cmd=%d created=%d len=%d\n%s\n",
		rec.ID, rec.Term, rec.Cmd, rec.Created, len(rec.Data), rec.Data)
	return nil
}
