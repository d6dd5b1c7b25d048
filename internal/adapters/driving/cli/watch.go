package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/inkwell-dms/inkwell/internal/adapters/driven/blobstore/local"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driving"
	"github.com/inkwell-dms/inkwell/internal/logger"
)

// watchDebounce batches bursts of filesystem events into one sync.
const watchDebounce = 2 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch local storage and sync on changes",
	Long: `Watches the local storage backend for file changes and runs a
reconciliation whenever the tree settles. Only local backends can be
watched. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if reconcileService == nil {
		return errors.New("sync service not configured")
	}

	storage, err := activeStorage()
	if err != nil {
		return err
	}
	localStorage, ok := storage.(*local.Storage)
	if !ok {
		return fmt.Errorf("backend %s is not a local backend and cannot be watched", storage.Backend())
	}
	root := localStorage.Root()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the whole tree; fsnotify is not recursive by itself.
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && !strings.HasPrefix(d.Name(), ".") {
			return watcher.Add(p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}

	ctx := cmd.Context()

	cmd.Printf("Watching %s (backend %s). Press Ctrl-C to stop.\n", root, storage.Backend())

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			cmd.Println("\nStopped.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// New directories must be added to the watch set.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			logger.Debug("Watch event: %s", event)
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch: %v", err)

		case <-timerC:
			timer = nil
			timerC = nil
			cmd.Println("Change detected, syncing...")
			result, err := reconcileService.ExecuteSync(ctx, driving.ExecuteOptions{})
			if err != nil {
				if ctx.Err() != nil {
					cmd.Println("\nStopped.")
					return nil
				}
				cmd.Printf("Sync failed: %v\n", err)
				continue
			}
			cmd.Printf("Sync complete: %d items, %d failures\n",
				len(result.Items), len(result.Failures()))
		}
	}
}
