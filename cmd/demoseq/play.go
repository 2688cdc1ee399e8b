package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/demoseq/internal/logging"
	"github.com/ivlev/demoseq/internal/player"
	"github.com/ivlev/demoseq/internal/resolve"
	"github.com/ivlev/demoseq/internal/system"
	"github.com/ivlev/demoseq/internal/timeline"
)

type playOptions struct {
	from     int
	to       int
	realtime bool
	stats    bool
}

func playCmd(a *app) *cobra.Command {
	var opts playOptions
	cmd := &cobra.Command{
		Use:   "play [PROJECT]",
		Short: "Run the generators over a frame range without output",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.projectArg(args)
			if err != nil {
				return err
			}
			tl, _, err := openTimeline(path, a.reg)
			if err != nil {
				return err
			}

			stats, err := play(cmd.Context(), tl, opts, a.cfg.FPS)
			if err != nil {
				return err
			}
			logging.Logger().Info("playback done", "frames", stats.Frames, "updates", stats.Updates, "instances", stats.PeakInstances)

			if opts.stats || a.cfg.ShowStats {
				ps, err := system.ReadProcessStats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), system.PerformanceReport(version, stats.Frames, stats.Elapsed, ps))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.from, "from", 0, "First frame")
	cmd.Flags().IntVar(&opts.to, "to", 0, "End frame, exclusive (default: project duration)")
	cmd.Flags().BoolVar(&opts.realtime, "realtime", false, "Pace playback at the configured fps")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "Print a performance report")
	return cmd
}

func play(ctx context.Context, tl *timeline.Timeline, opts playOptions, fps int) (player.Stats, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	to := opts.to
	if to <= 0 {
		to = tl.Duration
	}

	var each func(int, *resolve.ActiveClipMap) error
	if opts.realtime {
		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		each = func(int, *resolve.ActiveClipMap) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				return nil
			}
		}
	}
	return player.New(tl).Run(ctx, opts.from, to, each)
}
