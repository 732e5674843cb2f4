package render

import (
	"image"

	"github.com/gogpu/gg"

	"github.com/doodleyaar/client/internal/stroke"
)

// Frame is everything the renderer composes in one pass: session
// history first, then other users' in-progress strokes, then the local
// in-progress stroke on top.
type Frame struct {
	Finalized []stroke.Stroke
	Live      []stroke.Stroke
	Local     *stroke.Stroke
}

// Renderer rasterizes frames at a fixed pixel size. It holds no state
// between frames; given the same frame it produces the same raster.
type Renderer struct {
	width  int
	height int
}

func New(width, height int) *Renderer {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Renderer{width: width, height: height}
}

func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// Render composes a frame onto a fresh transparent canvas. Draw order
// is finalized strokes, then live strokes, then the local stroke, so
// one's own stroke always ends up on top.
func (r *Renderer) Render(f Frame) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	for _, s := range f.Finalized {
		r.drawStroke(canvas, s)
	}
	for _, s := range f.Live {
		r.drawStroke(canvas, s)
	}
	if f.Local != nil {
		r.drawStroke(canvas, *f.Local)
	}
	return canvas
}

func (r *Renderer) drawStroke(dst *image.RGBA, s stroke.Stroke) {
	if len(s.Points) == 0 {
		return
	}

	style := stroke.StyleFor(s.Tool, s.Color, s.Size, s.Opacity)
	cov := r.rasterize(s.Points, style.LineWidth)

	if style.Composite == stroke.CompositeErase {
		compositeOut(dst, cov, style.Alpha)
		return
	}

	// Canvas shadow semantics: the blurred silhouette is painted in the
	// shadow color beneath the stroke, at the same alpha.
	if style.ShadowBlur > 0 {
		shadow := blurCoverage(cov, r.width, r.height, style.ShadowBlur)
		compositeOver(dst, shadow, gg.Hex(style.ShadowColor), style.Alpha)
	}
	compositeOver(dst, cov, gg.Hex(s.Color), style.Alpha)
}

// rasterize strokes the point sequence opaquely into a scratch context
// and returns per-pixel coverage. Compositing against the destination
// happens afterwards, so a self-crossing path never darkens itself —
// the same guarantee a single canvas stroke() gives.
func (r *Renderer) rasterize(points []stroke.Point, lineWidth float64) []uint8 {
	dc := gg.NewContext(r.width, r.height)
	dc.SetRGBA(1, 1, 1, 1)
	dc.SetLineWidth(lineWidth)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	buildPath(dc, points, float64(r.width), float64(r.height))
	dc.Stroke()

	return coverageOf(dc.Image(), r.width, r.height)
}

// buildPath turns normalized points into a pixel-space path:
//
//	1 point:  a ~1px tick so single taps stay visible
//	2 points: a straight segment
//	3+:       quadratic curves through each interior point to the
//	          midpoint of it and its successor, ending with a straight
//	          segment into the final point
//
// Every client in a session renders from the same point stream, so the
// curve construction has to be identical everywhere.
func buildPath(dc *gg.Context, points []stroke.Point, w, h float64) {
	first := points[0]
	dc.MoveTo(first.X*w, first.Y*h)

	if len(points) < 3 {
		if len(points) == 1 {
			dc.LineTo(first.X*w+1, first.Y*h+1)
		} else {
			dc.LineTo(points[1].X*w, points[1].Y*h)
		}
		return
	}

	for i := 1; i < len(points)-1; i++ {
		p1 := points[i]
		p2 := points[i+1]
		midX := (p1.X + p2.X) * w / 2
		midY := (p1.Y + p2.Y) * h / 2
		dc.QuadraticTo(p1.X*w, p1.Y*h, midX, midY)
	}
	last := points[len(points)-1]
	dc.LineTo(last.X*w, last.Y*h)
}
