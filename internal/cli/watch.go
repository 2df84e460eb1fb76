package cli

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dicklesworthstone/kvidx"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var flagWatchPollInterval time.Duration

func init() {
	watchCmd.Flags().DurationVar(&flagWatchPollInterval, "poll-interval", 2*time.Second, "fallback polling interval if fsnotify isn't available for this store's directory")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream NDJSON events as the store file changes on disk",
	Long: `watch tails the store's WAL sidecar file for writes made by other
processes (the owning application, a replica, etc.) and emits one NDJSON
event per observed change. Each session is tagged with a random id so
concurrent "watch" invocations can be told apart in merged logs.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

type watchEvent struct {
	Event     string    `json:"event"`
	SessionID string    `json:"session_id"`
	Path      string    `json:"path"`
	KeyCount  uint64    `json:"key_count,omitempty"`
	Time      time.Time `json:"time"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	path := resolveStorePath()
	sessionID := uuid.NewString()
	enc := json.NewEncoder(cmd.OutOrStdout())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("fsnotify unavailable, falling back to polling", "err", err)
		return watchPolling(ctx, path, sessionID, enc)
	}
	defer watcher.Close()

	if err := watcher.Add(path + "-wal"); err != nil {
		logger.Debug("wal sidecar not watchable yet, falling back to polling", "err", err)
		return watchPolling(ctx, path, sessionID, enc)
	}

	enc.Encode(watchEvent{Event: "watch_started", SessionID: sessionID, Path: path, Time: time.Now()})

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			keyCount, _ := countKeys(ctx, path)
			enc.Encode(watchEvent{Event: "store_changed", SessionID: sessionID, Path: path, KeyCount: keyCount, Time: time.Now()})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "err", err)
		}
	}
}

func watchPolling(ctx context.Context, path, sessionID string, enc *json.Encoder) error {
	ticker := time.NewTicker(flagWatchPollInterval)
	defer ticker.Stop()

	var lastCount uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			count, err := countKeys(ctx, path)
			if err != nil {
				continue
			}
			if count != lastCount {
				enc.Encode(watchEvent{Event: "store_changed", SessionID: sessionID, Path: path, KeyCount: count, Time: time.Now()})
				lastCount = count
			}
		}
	}
}

func countKeys(ctx context.Context, path string) (uint64, error) {
	inst, err := kvidx.Open(ctx, path)
	if err != nil {
		return 0, err
	}
	defer inst.Close(ctx)
	return inst.GetKeyCount(ctx)
}
