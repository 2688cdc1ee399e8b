// Package preview rasterises timelines: single frames through the built-in
// generators, an overview image of the tracks, and video through ffmpeg.
package preview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/ivlev/demoseq/internal/generators"
	"github.com/ivlev/demoseq/internal/player"
	"github.com/ivlev/demoseq/internal/property"
	"github.com/ivlev/demoseq/internal/resolve"
	"github.com/ivlev/demoseq/internal/schema"
	"github.com/ivlev/demoseq/internal/system"
)

var background = image.NewUniform(color.RGBA{A: 255})

// RenderFrame advances p to frame and draws every active generator into dst
// in track order.
func RenderFrame(p *player.Player, frame int, dst *image.RGBA) *resolve.ActiveClipMap {
	active := p.Step(frame)
	draw.Draw(dst, dst.Bounds(), background, image.Point{}, draw.Src)
	drawActive(p, active, dst)
	return active
}

func drawActive(p *player.Player, active *resolve.ActiveClipMap, dst *image.RGBA) {
	tints := make(map[property.ClipID]color.RGBA)
	for _, a := range active.All() {
		p.With(a.ID, func(g schema.Generator) {
			if _, ok := g.(generators.Follower); ok {
				return
			}
			if t, ok := g.(generators.Tinter); ok {
				tints[a.ID] = t.Tint()
			}
		})
	}

	for _, a := range active.All() {
		p.With(a.ID, func(g schema.Generator) {
			if f, ok := g.(generators.Follower); ok {
				if id, ok := f.Follows().Get(); ok {
					if tint, ok := tints[id]; ok {
						f.Follow(tint)
					}
				}
			}
			if d, ok := g.(generators.Drawer); ok {
				d.Draw(dst)
			}
		})
	}
}

// Renderer draws frames at a reduced working resolution and scales them up
// to the output size.
type Renderer struct {
	player *player.Player
	width  int
	height int
	work   image.Rectangle
	pool   *system.FramePool
}

// NewRenderer creates a renderer producing width x height frames. scale in
// (0, 1] sets the working resolution.
func NewRenderer(p *player.Player, width, height int, scale float64) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("preview: invalid frame size %dx%d", width, height)
	}
	if scale <= 0 || scale > 1 {
		return nil, fmt.Errorf("preview: scale %v out of (0, 1]", scale)
	}
	ww := max(1, int(math.Round(float64(width)*scale)))
	wh := max(1, int(math.Round(float64(height)*scale)))
	return &Renderer{
		player: p,
		width:  width,
		height: height,
		work:   image.Rect(0, 0, ww, wh),
		pool:   system.NewFramePool(),
	}, nil
}

// Bounds returns the output frame bounds.
func (r *Renderer) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.width, r.height)
}

// NewFrame returns an output-sized frame from the pool.
func (r *Renderer) NewFrame() *image.RGBA {
	return r.pool.Get(r.Bounds())
}

// Release returns a frame obtained from NewFrame.
func (r *Renderer) Release(img *image.RGBA) {
	r.pool.Put(img)
}

// Render advances the player to frame and draws the result into dst.
func (r *Renderer) Render(frame int, dst *image.RGBA) *resolve.ActiveClipMap {
	active := r.player.Step(frame)
	r.Draw(active, dst)
	return active
}

// Draw rasterises an already resolved frame into dst.
func (r *Renderer) Draw(active *resolve.ActiveClipMap, dst *image.RGBA) {
	if r.work == dst.Bounds() {
		draw.Draw(dst, dst.Bounds(), background, image.Point{}, draw.Src)
		drawActive(r.player, active, dst)
		return
	}

	work := r.pool.Get(r.work)
	defer r.pool.Put(work)
	draw.Draw(work, work.Bounds(), background, image.Point{}, draw.Src)
	drawActive(r.player, active, work)
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), work, work.Bounds(), draw.Src, nil)
}

// RenderVideo plays [from, to) through r and streams every frame to enc,
// which must not be started yet.
func RenderVideo(ctx context.Context, r *Renderer, enc VideoEncoder, path string, from, to, fps int) (player.Stats, error) {
	if err := enc.Start(ctx, path, r.width, r.height, fps); err != nil {
		return player.Stats{}, err
	}

	frame := r.NewFrame()
	defer r.Release(frame)

	stats, err := r.player.Run(ctx, from, to, func(_ int, active *resolve.ActiveClipMap) error {
		r.Draw(active, frame)
		return enc.WriteFrame(frame)
	})
	if cerr := enc.Close(); err == nil {
		err = cerr
	}
	return stats, err
}
