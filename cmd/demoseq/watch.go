package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ivlev/demoseq/internal/config"
	"github.com/ivlev/demoseq/internal/logging"
	"github.com/ivlev/demoseq/internal/system"
)

func watchCmd(a *app) *cobra.Command {
	var opts exportOptions
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch [DIR]",
		Short: "Re-export projects whenever they change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.ProjectsDir
			if len(args) > 0 {
				dir = args[0]
			}
			opts.workers = a.cfg.Workers
			fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", dir)

			return watchProjects(cmd.Context(), dir, debounce, func(paths []string) {
				results, err := exportAll(cmd.Context(), paths, a.reg, opts)
				if err != nil {
					logging.Logger().Error("export failed", "error", err)
				}
				for _, r := range results {
					if r.Path != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", r.SHA256, r.Path)
					}
				}
			})
		},
	}
	cmd.Flags().StringVarP(&opts.outDir, "out-dir", "o", "", "Output directory (default: next to each project)")
	cmd.Flags().BoolVar(&opts.qr, "qr", false, "Also write a QR code of each artifact's SHA-256")
	cmd.Flags().DurationVar(&debounce, "debounce", 250*time.Millisecond, "Quiet period before re-exporting")
	return cmd
}

// watchProjects calls handle with the project files of dir that changed,
// batched by the debounce window, until ctx is done.
func watchProjects(ctx context.Context, dir string, debounce time.Duration, handle func(paths []string)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	log := logging.Logger()
	pending := make(map[string]struct{})
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Base(event.Name)
			if !system.IsProjectFile(name) || name == config.FileName {
				continue
			}
			log.Debug("project changed", "path", event.Name, "op", event.Op.String())
			pending[event.Name] = struct{}{}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "error", err)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			handle(paths)
		}
	}
}
