package cloud

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PathColors cycles over stroke identifiers.
var PathColors = []color.NRGBA{
	{0, 0, 139, 255},    // Dark blue
	{178, 34, 34, 255},  // Firebrick
	{0, 100, 0, 255},    // Dark green
	{184, 134, 11, 255}, // Dark goldenrod
	{106, 90, 205, 255}, // Slate blue
}

// nrgbaToRGBA premultiplies alpha for canvas paints.
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	a := uint32(c.A)
	return color.RGBA{
		R: uint8(uint32(c.R) * a / 255),
		G: uint8(uint32(c.G) * a / 255),
		B: uint8(uint32(c.B) * a / 255),
		A: c.A,
	}
}

// CloudRenderer draws a normalized point cloud projected onto the XY plane.
// Consecutive points sharing a path are joined; each path gets its own color.
type CloudRenderer struct {
	Points     []Point
	Caption    string            // PNG only
	Scale      float64           // canvas millimeters per normalized unit
	Padding    float64           // millimeters
	Resolution canvas.Resolution // PNG output
	Markers    bool              // draw a dot on every point
}

// NewCloudRenderer creates a renderer for t captioned with its label.
func NewCloudRenderer(t Template) *CloudRenderer {
	return &CloudRenderer{
		Points:     t.Points,
		Caption:    t.Label,
		Scale:      100.0,
		Padding:    10.0,
		Resolution: canvas.DPI(96),
		Markers:    true,
	}
}

type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the cloud as SVG.
func (r *CloudRenderer) RenderToSVG(w io.Writer) error {
	if len(r.Points) == 0 {
		return fmt.Errorf("nothing to render: empty point cloud")
	}
	width, height := r.size()
	s := svg.New(w, width, height, nil)
	r.renderToCanvas(s, width, height)
	return s.Close()
}

// RenderToPNG writes the cloud as PNG with the caption in the top left corner.
func (r *CloudRenderer) RenderToPNG(w io.Writer) error {
	if len(r.Points) == 0 {
		return fmt.Errorf("nothing to render: empty point cloud")
	}
	width, height := r.size()
	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, width, height)

	if r.Caption != "" {
		drawText(rast, 4, 13, r.Caption, color.RGBA{0, 0, 0, 255})
	}
	return png.Encode(w, rast)
}

func (r *CloudRenderer) bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY = -math.MaxFloat64, -math.MaxFloat64
	for _, p := range r.Points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return
}

func (r *CloudRenderer) size() (width, height float64) {
	minX, minY, maxX, maxY := r.bounds()
	width = (maxX-minX)*r.Scale + 2*r.Padding
	height = (maxY-minY)*r.Scale + 2*r.Padding
	return
}

func (r *CloudRenderer) renderToCanvas(renderer canvasRenderer, width, height float64) {
	minX, minY, _, _ := r.bounds()
	toCanvas := func(p Point) (float64, float64) {
		return (p.X-minX)*r.Scale + r.Padding, (p.Y-minY)*r.Scale + r.Padding
	}

	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	// Strokes
	start := 0
	for i := 1; i <= len(r.Points); i++ {
		if i < len(r.Points) && r.Points[i].Path == r.Points[start].Path {
			continue
		}
		run := r.Points[start:i]
		if len(run) > 1 {
			style := canvas.DefaultStyle
			style.Fill = canvas.Paint{Color: canvas.Transparent}
			style.Stroke = canvas.Paint{Color: nrgbaToRGBA(pathColor(run[0].Path))}
			style.StrokeWidth = 1.0

			cp := &canvas.Path{}
			for j, p := range run {
				x, y := toCanvas(p)
				if j == 0 {
					cp.MoveTo(x, y)
				} else {
					cp.LineTo(x, y)
				}
			}
			renderer.RenderPath(cp, style, canvas.Identity)
		}
		start = i
	}

	if !r.Markers {
		return
	}
	for i, p := range r.Points {
		style := canvas.DefaultStyle
		style.Fill = canvas.Paint{Color: nrgbaToRGBA(pathColor(p.Path))}
		style.Stroke = canvas.Paint{Color: canvas.Transparent}

		radius := 0.8
		if i == 0 {
			// first resampled point marks where the gesture starts
			radius = 1.6
			style.Stroke = canvas.Paint{Color: canvas.Black}
			style.StrokeWidth = 0.3
		}
		x, y := toCanvas(p)
		renderer.RenderPath(canvas.Circle(radius).Translate(x, y), style, canvas.Identity)
	}
}

func pathColor(path int) color.NRGBA {
	if path < 0 {
		path = -path
	}
	return PathColors[path%len(PathColors)]
}

// drawText draws text with its baseline at pixel (x, y).
func drawText(img draw.Image, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
