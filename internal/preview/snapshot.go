package preview

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/demoseq/internal/timeline"
)

// SnapshotOptions control the timeline overview.
type SnapshotOptions struct {
	Width     int
	RowHeight int
	// Cursor marks a frame with a vertical line; negative hides it.
	Cursor int
}

const (
	rulerHeight = 16
	minRow      = 18
)

var (
	snapshotBG   = color.RGBA{R: 24, G: 24, B: 28, A: 255}
	rulerColor   = color.RGBA{R: 90, G: 90, B: 100, A: 255}
	cursorColor  = color.RGBA{R: 230, G: 60, B: 60, A: 255}
	outlineColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	animColor    = color.RGBA{R: 120, G: 120, B: 130, A: 255}
	labelColor   = color.RGBA{R: 16, G: 16, B: 16, A: 255}

	palette = []color.RGBA{
		{R: 88, G: 166, B: 255, A: 255},
		{R: 255, G: 184, B: 76, A: 255},
		{R: 126, G: 214, B: 120, A: 255},
		{R: 212, G: 130, B: 255, A: 255},
	}
)

// SchemaColor returns the snapshot color of the schema at index.
func SchemaColor(index int) color.RGBA {
	return palette[index%len(palette)]
}

// Snapshot draws the tracks of tl as labelled bars, one row per track.
func Snapshot(tl *timeline.Timeline, opt SnapshotOptions) *image.RGBA {
	width := max(opt.Width, 1)
	row := max(opt.RowHeight, minRow)
	tracks := max(len(tl.Tracks), 1)
	img := image.NewRGBA(image.Rect(0, 0, width, rulerHeight+tracks*row))
	fill(img, img.Bounds(), snapshotBG)

	span := max(tl.Duration, tl.End(), 1)
	xOf := func(frame int) int {
		return int(int64(frame) * int64(width) / int64(span))
	}

	// Ruler ticks every tenth of the span.
	for i := 0; i <= 10; i++ {
		x := min(xOf(span*i/10), width-1)
		fill(img, image.Rect(x, rulerHeight-6, x+1, rulerHeight), rulerColor)
	}

	for _, p := range tl.Placements() {
		x0, x1 := xOf(p.Start), xOf(p.End())
		if x1 <= x0 {
			x1 = x0 + 1
		}
		y0 := rulerHeight + p.Track*row + 2
		r := image.Rect(x0, y0, x1, y0+row-4)

		c := animColor
		if p.Clip.Schema != nil {
			c = SchemaColor(p.Clip.Schema.Index())
		}
		fill(img, r, c)
		if p.Clip.Selected {
			outline(img, r, outlineColor)
		}
		label(img, r, p.Clip.Name)
	}

	if opt.Cursor >= 0 && opt.Cursor <= span {
		x := min(xOf(opt.Cursor), width-1)
		fill(img, image.Rect(x, 0, x+1, img.Bounds().Dy()), cursorColor)
	}
	return img
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func outline(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	fill(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), c)
	fill(img, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), c)
	fill(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), c)
	fill(img, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// label writes text inside r, clipped to it.
func label(img *image.RGBA, r image.Rectangle, text string) {
	face := basicfont.Face7x13
	if r.Dx() < face.Advance+4 || text == "" {
		return
	}
	clip, ok := img.SubImage(r.Inset(1)).(*image.RGBA)
	if !ok {
		return
	}
	d := &font.Drawer{
		Dst:  clip,
		Src:  image.NewUniform(labelColor),
		Face: face,
		Dot:  fixed.P(r.Min.X+3, r.Min.Y+(r.Dy()+face.Ascent-face.Descent)/2),
	}
	d.DrawString(text)
}
