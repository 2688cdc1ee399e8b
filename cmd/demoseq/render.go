package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/spf13/cobra"

	"github.com/ivlev/demoseq/internal/logging"
	"github.com/ivlev/demoseq/internal/player"
	"github.com/ivlev/demoseq/internal/preview"
	"github.com/ivlev/demoseq/internal/system"
)

type renderOptions struct {
	frame int
	out   string
	video string
	from  int
	to    int
	scale float64
}

func renderCmd(a *app) *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render [PROJECT]",
		Short: "Render one frame to an image, or a frame range to video",
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
			r, err := preview.NewRenderer(player.New(tl), a.cfg.Width, a.cfg.Height, opts.scale)
			if err != nil {
				return err
			}

			if opts.video == "" {
				return renderImage(r, opts.frame, opts.out)
			}

			to := opts.to
			if to <= 0 {
				to = tl.Duration
			}
			encoder := a.cfg.VideoEncoder
			if encoder == "" {
				encoder = system.BestH264Encoder(cmd.Context())
			}
			enc := &preview.FFmpegEncoder{Encoder: encoder, Quality: a.cfg.EncoderQuality(encoder)}

			stats, err := preview.RenderVideo(cmd.Context(), r, enc, opts.video, opts.from, to, a.cfg.FPS)
			if err != nil {
				return err
			}
			logging.Logger().Info("video rendered", "out", opts.video, "encoder", encoder, "frames", stats.Frames, "fps", fmt.Sprintf("%.1f", stats.FPS()))
			fmt.Fprintln(cmd.OutOrStdout(), opts.video)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.frame, "frame", 0, "Frame to render")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "frame.png", "Image output path (.png or .webp)")
	cmd.Flags().StringVar(&opts.video, "video", "", "Render a video to this path instead of a PNG")
	cmd.Flags().IntVar(&opts.from, "from", 0, "First video frame")
	cmd.Flags().IntVar(&opts.to, "to", 0, "End video frame, exclusive (default: project duration)")
	cmd.Flags().Float64Var(&opts.scale, "scale", 1, "Working resolution relative to the output size")
	return cmd
}

func renderImage(r *preview.Renderer, frame int, out string) error {
	img := r.NewFrame()
	defer r.Release(img)
	active := r.Render(frame, img)

	if err := writeImage(out, img); err != nil {
		return err
	}
	logging.Logger().Info("frame rendered", "frame", frame, "active", active.Len(), "out", out)
	return nil
}

// writeImage encodes img as WebP when path ends in .webp, PNG otherwise.
func writeImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".webp") {
		err = nativewebp.Encode(f, img, nil)
	} else {
		err = png.Encode(f, img)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
