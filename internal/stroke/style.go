package stroke

// How a stroke's pixels combine with the pixels already on the canvas
type Composite uint8

const (
	// Paint over the destination
	CompositeOver Composite = iota

	// Clear the destination where the stroke covers it
	CompositeErase
)

// The derived raster style for one stroke render
type Style struct {
	LineWidth   float64
	Alpha       float64
	Composite   Composite
	ShadowBlur  float64
	ShadowColor string
}

// StyleFor derives the raster style for a tool and the stroke's base
// attributes. Called once per stroke render, never cached: color, size
// and opacity belong to the stroke, not the tool. Unknown tools fall
// back to pencil.
func StyleFor(tool Tool, color string, size, opacity float64) Style {
	switch tool {
	case ToolEraser:
		return Style{LineWidth: size, Alpha: 1, Composite: CompositeErase}
	case ToolWatercolor:
		// Soft bleed: wider line, low alpha, plus a blurred shadow in
		// the stroke's own color. Overlapping watercolor strokes darken
		// where they overlap.
		return Style{
			LineWidth:   size * 1.2,
			Alpha:       opacity * 0.2,
			Composite:   CompositeOver,
			ShadowBlur:  size,
			ShadowColor: color,
		}
	case ToolOil:
		return Style{LineWidth: size * 1.5, Alpha: opacity * 0.6, Composite: CompositeOver}
	default:
		return Style{LineWidth: size, Alpha: opacity, Composite: CompositeOver}
	}
}
