package capture

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doodleyaar/client/internal/stroke"
)

// Emitter receives the three outbound stroke events. Start carries the
// full style so peers can render the live stroke immediately; End
// carries the entire accumulated buffer so the final stroke is complete
// even if throttled updates were dropped along the way.
type Emitter interface {
	StartStroke(points []stroke.Point, b stroke.Brush)
	DrawStroke(points []stroke.Point)
	EndStroke(points []stroke.Point, b stroke.Brush)
}

// Bounds is the drawing surface's bounding box in the same coordinate
// space as incoming pointer events.
type Bounds struct {
	X, Y, W, H float64
}

// Position is a raw pointer coordinate. A nil *Position stands for an
// event whose coordinate could not be resolved.
type Position struct {
	X, Y float64
}

// Capturer turns pointer events into normalized local stroke state and
// drives the emission policy. It is a two-state machine: idle until a
// pointer goes down, capturing until it goes up, cancels, or leaves the
// surface.
type Capturer struct {
	mu       sync.Mutex
	bounds   Bounds
	brush    stroke.Brush
	drawing  bool
	localID  string
	buf      []stroke.Point
	emitter  Emitter
	throttle *Throttle
	onChange func()
}

// New creates an idle capturer. onChange fires after every locally
// appended point, before any network send, so local feedback never
// waits on the throttle.
func New(emitter Emitter, onChange func()) *Capturer {
	c := &Capturer{
		brush:    stroke.DefaultBrush(),
		emitter:  emitter,
		onChange: onChange,
	}
	c.throttle = NewThrottle(DefaultInterval, c.sendUpdate)
	return c
}

// NewWithInterval is New with a custom throttle window.
func NewWithInterval(emitter Emitter, onChange func(), interval time.Duration) *Capturer {
	c := New(emitter, onChange)
	c.throttle = NewThrottle(interval, c.sendUpdate)
	return c
}

func (c *Capturer) SetBounds(b Bounds) {
	c.mu.Lock()
	c.bounds = b
	c.mu.Unlock()
}

func (c *Capturer) SetTool(t stroke.Tool) {
	c.mu.Lock()
	c.brush.Tool = t
	c.mu.Unlock()
}

func (c *Capturer) SetColor(color string) {
	c.mu.Lock()
	c.brush.Color = color
	c.mu.Unlock()
}

func (c *Capturer) SetSize(size float64) {
	c.mu.Lock()
	c.brush.Size = size
	c.mu.Unlock()
}

func (c *Capturer) SetOpacity(opacity float64) {
	c.mu.Lock()
	c.brush.Opacity = opacity
	c.mu.Unlock()
}

func (c *Capturer) Brush() stroke.Brush {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brush
}

// Down transitions idle -> capturing: seed the buffer with the first
// normalized point and announce the stroke with its full style.
func (c *Capturer) Down(pos *Position) {
	if pos == nil {
		return
	}
	c.mu.Lock()
	p, ok := c.normalize(pos)
	if !ok {
		c.mu.Unlock()
		return
	}
	c.drawing = true
	c.localID = uuid.NewString()
	c.buf = []stroke.Point{p}
	brush := c.brush
	c.mu.Unlock()

	c.emitter.StartStroke([]stroke.Point{p}, brush)
}

// Move appends a point while capturing, redraws locally, then consults
// the throttle. Events outside a capture or without a coordinate are
// ignored.
func (c *Capturer) Move(pos *Position) {
	if pos == nil {
		return
	}
	c.mu.Lock()
	if !c.drawing {
		c.mu.Unlock()
		return
	}
	p, ok := c.normalize(pos)
	if !ok {
		c.mu.Unlock()
		return
	}
	c.buf = append(c.buf, p)
	onChange := c.onChange
	c.mu.Unlock()

	if onChange != nil {
		onChange()
	}
	c.throttle.Trigger()
}

// Up transitions capturing -> idle: cancel any deferred update and send
// the complete buffer synchronously. Pointer cancel and leaving the
// surface go through here too.
func (c *Capturer) Up() {
	c.mu.Lock()
	if !c.drawing {
		c.mu.Unlock()
		return
	}
	c.drawing = false
	points := c.buf
	c.buf = nil
	c.localID = ""
	brush := c.brush
	c.mu.Unlock()

	c.throttle.Cancel()
	if len(points) > 0 {
		c.emitter.EndStroke(points, brush)
	}
}

// Current returns the in-progress stroke for rendering, or false when
// idle. The local stroke is never stored in the live collection; it is
// built straight from capture state.
func (c *Capturer) Current() (stroke.Stroke, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.drawing || len(c.buf) == 0 {
		return stroke.Stroke{}, false
	}
	points := make([]stroke.Point, len(c.buf))
	copy(points, c.buf)
	return stroke.Stroke{
		ID:      c.localID,
		Points:  points,
		Color:   c.brush.Color,
		Size:    c.brush.Size,
		Opacity: c.brush.Opacity,
		Tool:    c.brush.Tool,
	}, true
}

// sendUpdate ships the buffer as it stands when the throttle lets an
// update through. A deferred send that fires after the stroke ended
// finds the capturer idle and does nothing.
func (c *Capturer) sendUpdate() {
	c.mu.Lock()
	if !c.drawing || len(c.buf) == 0 {
		c.mu.Unlock()
		return
	}
	points := make([]stroke.Point, len(c.buf))
	copy(points, c.buf)
	c.mu.Unlock()

	c.emitter.DrawStroke(points)
}

func (c *Capturer) normalize(pos *Position) (stroke.Point, bool) {
	if c.bounds.W <= 0 || c.bounds.H <= 0 {
		return stroke.Point{}, false
	}
	x := (pos.X - c.bounds.X) / c.bounds.W
	y := (pos.Y - c.bounds.Y) / c.bounds.H
	return stroke.Clamp(x, y), true
}
