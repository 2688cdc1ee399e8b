package main

import (
	"github.com/spf13/cobra"

	"github.com/ivlev/demoseq/internal/logging"
	"github.com/ivlev/demoseq/internal/preview"
)

func snapshotCmd(a *app) *cobra.Command {
	var out string
	opts := preview.SnapshotOptions{}
	cmd := &cobra.Command{
		Use:   "snapshot [PROJECT]",
		Short: "Draw an overview of the tracks to an image",
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
			img := preview.Snapshot(tl, opts)
			if err := writeImage(out, img); err != nil {
				return err
			}
			logging.Logger().Info("snapshot written", "project", path, "out", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "timeline.png", "Image output path (.png or .webp)")
	cmd.Flags().IntVar(&opts.Width, "width", 1200, "Image width")
	cmd.Flags().IntVar(&opts.RowHeight, "row", 24, "Track row height")
	cmd.Flags().IntVar(&opts.Cursor, "cursor", -1, "Mark this frame (negative hides the cursor)")
	return cmd
}
