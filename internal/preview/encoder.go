package preview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
)

// ErrNotStarted is returned when frames are written before Start.
var ErrNotStarted = errors.New("preview: encoder not started")

// VideoEncoder consumes a stream of equally sized frames.
type VideoEncoder interface {
	Start(ctx context.Context, path string, width, height, fps int) error
	WriteFrame(img *image.RGBA) error
	Close() error
}

// FFmpegEncoder pipes raw RGBA frames into an ffmpeg process.
type FFmpegEncoder struct {
	Encoder string
	Quality int

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	width  int
	height int
}

func (e *FFmpegEncoder) Start(ctx context.Context, path string, width, height, fps int) error {
	args := e.buildFFmpegArgs(width, height, fps, path)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("preview: stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("preview: ffmpeg start: %w", err)
	}

	e.cmd, e.stdin = cmd, stdin
	e.width, e.height = width, height
	return nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(width, height, fps int, path string) []string {
	encoder := e.Encoder
	if encoder == "" {
		encoder = "libx264"
	}

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", encoder,
	}

	switch encoder {
	case "h264_videotoolbox":
		args = append(args, "-b:v", fmt.Sprintf("%dk", e.Quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", e.Quality))
	default:
		args = append(args, "-crf", fmt.Sprintf("%d", e.Quality), "-preset", "medium")
	}

	return append(args, path)
}

func (e *FFmpegEncoder) WriteFrame(img *image.RGBA) error {
	if e.stdin == nil {
		return ErrNotStarted
	}
	if b := img.Bounds(); b.Dx() != e.width || b.Dy() != e.height {
		return fmt.Errorf("preview: frame is %dx%d, encoder expects %dx%d", b.Dx(), b.Dy(), e.width, e.height)
	}
	if err := writeRawRGBA(e.stdin, img); err != nil {
		return fmt.Errorf("preview: write frame: %w", err)
	}
	return nil
}

// Close flushes the pipe and waits for ffmpeg to exit.
func (e *FFmpegEncoder) Close() error {
	if e.cmd == nil {
		return ErrNotStarted
	}
	e.stdin.Close()
	err := e.cmd.Wait()
	e.cmd, e.stdin = nil, nil
	if err != nil {
		return fmt.Errorf("preview: ffmpeg wait: %w", err)
	}
	return nil
}

// writeRawRGBA writes the frame rows without stride padding.
func writeRawRGBA(w io.Writer, img *image.RGBA) error {
	b := img.Bounds()
	row := b.Dx() * 4
	if img.Stride == row {
		start := img.PixOffset(b.Min.X, b.Min.Y)
		_, err := w.Write(img.Pix[start : start+row*b.Dy()])
		return err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := img.PixOffset(b.Min.X, y)
		if _, err := w.Write(img.Pix[start : start+row]); err != nil {
			return err
		}
	}
	return nil
}
