package stroke

// A single sampled coordinate, normalized to [0,1] relative to the
// canvas size at capture time so strokes render correctly at any
// canvas size.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clamp forces a normalized coordinate pair into [0,1].
func Clamp(x, y float64) Point {
	return Point{X: clamp01(x), Y: clamp01(y)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// The drawing tool a stroke was made with
type Tool string

const (
	ToolPencil     Tool = "pencil"
	ToolEraser     Tool = "eraser"
	ToolWatercolor Tool = "watercolor"
	ToolOil        Tool = "oil"
)

// One continuous drawing gesture: an ordered point sequence plus the
// style it was drawn with. ID is assigned by the session authority;
// a stroke without one is still local-pending.
type Stroke struct {
	ID      string  `json:"id,omitempty"`
	UserID  string  `json:"userId,omitempty"`
	Points  []Point `json:"points"`
	Color   string  `json:"color"`
	Size    float64 `json:"size"`
	Opacity float64 `json:"opacity"`
	Tool    Tool    `json:"tool"`
}

// The live drawing attributes a new stroke inherits
type Brush struct {
	Color   string
	Size    float64
	Opacity float64
	Tool    Tool
}

// DefaultBrush matches the attributes a fresh session starts with.
func DefaultBrush() Brush {
	return Brush{
		Color:   "#000000",
		Size:    5,
		Opacity: 1,
		Tool:    ToolPencil,
	}
}
