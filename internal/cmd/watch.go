package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lineament/tracerepo/internal/organize"
	"github.com/lineament/tracerepo/internal/schema"
)

// debounce delay between a staging event and the triggered organize run, so
// a burst of copied files is handled in one pass.
const watchSettle = 500 * time.Millisecond

// NewWatchCommand creates and returns the watch subcommand
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the staging directory and organize new files",
		Long: `Watch the staging directory and move newly staged datasets to their
canonical locations as they appear. Files whose stem has no index row are
logged and left in staging. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newCommandEnv(cmd)
			if err != nil {
				return err
			}

			layout := organize.DefaultLayout(env.root)
			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			defer watcher.Close()

			if err := watcher.Add(layout.UnorganizedRoot()); err != nil {
				return fmt.Errorf("failed to watch %s: %w", layout.UnorganizedRoot(), err)
			}
			env.log.LogInfo(fmt.Sprintf("Watching %s", layout.UnorganizedRoot()))

			var timer *time.Timer
			trigger := make(chan struct{}, 1)

			for {
				select {
				case <-cmd.Context().Done():
					return nil

				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
						continue
					}
					if !strings.HasSuffix(event.Name, "."+schema.Filetype) {
						continue
					}
					env.log.LogDebug(fmt.Sprintf("Staged file event: %s", event.Name))
					// Restart the settle timer on every event in the burst.
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(watchSettle, func() {
						select {
						case trigger <- struct{}{}:
						default:
						}
					})

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					env.log.LogError(fmt.Sprintf("Watcher error: %v", err))

				case <-trigger:
					if err := organizeStaged(env); err != nil {
						env.log.LogError(fmt.Sprintf("Organize failed: %v", err))
					}
				}
			}
		},
	}
}

// organizeStaged reloads the index and organizes whatever is currently
// staged. The index is re-read per run so external database edits are
// picked up while watching.
func organizeStaged(env *commandEnv) error {
	org, err := env.loadOrganizer()
	if err != nil {
		return err
	}
	descriptions, err := org.Organize(false)
	for _, description := range descriptions {
		env.log.LogInfo(description)
	}
	return err
}
