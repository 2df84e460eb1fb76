package cli

import (
	"context"
	"fmt"

	"github.com/Dicklesworthstone/kvidx"
)

// openStore opens the resolved store path for the duration of one
// command invocation; callers defer the returned close func.
func openStore(ctx context.Context) (*kvidx.Instance, func(), error) {
	path := resolveStorePath()
	inst, err := kvidx.Open(ctx, path, kvidx.WithLogger(logger.WithPrefix("store")))
	if err != nil {
		return nil, nil, fmt.Errorf("opening store %s: %w", path, err)
	}
	return inst, func() { inst.Close(ctx) }, nil
}
