package ebitenui

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/wricardo/arena-io/client/render"
)

var (
	whiteImage = ebiten.NewImage(3, 3)
	// whiteSubImage keeps texture sampling away from the image edge.
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// Canvas is a render.Surface backed by an offscreen ebiten image. Shapes
// are built as vector paths and transformed on the CPU, so rotated
// rectangles and polygons stay exact.
type Canvas struct {
	target *ebiten.Image
	assets *Assets
	geo    ebiten.GeoM
	stack  []ebiten.GeoM
}

// NewCanvas creates a w by h canvas.
func NewCanvas(w, h int, assets *Assets) *Canvas {
	if assets == nil {
		assets = NewAssets()
	}
	return &Canvas{
		target: ebiten.NewImage(max(w, 1), max(h, 1)),
		assets: assets,
	}
}

// Image returns the backing image.
func (c *Canvas) Image() *ebiten.Image {
	return c.target
}

// Resize replaces the backing image. The content is lost; the next frame
// repaints it.
func (c *Canvas) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	b := c.target.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return
	}
	c.target.Deallocate()
	c.target = ebiten.NewImage(w, h)
}

// Bounds returns the canvas size in pixels.
func (c *Canvas) Bounds() image.Point {
	return c.target.Bounds().Size()
}

func (c *Canvas) Size() (float64, float64) {
	s := c.Bounds()
	return float64(s.X), float64(s.Y)
}

func (c *Canvas) Clear() {
	c.target.Clear()
}

func (c *Canvas) Save() {
	c.stack = append(c.stack, c.geo)
}

func (c *Canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.geo = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *Canvas) Translate(x, y float64) {
	var m ebiten.GeoM
	m.Translate(x, y)
	m.Concat(c.geo)
	c.geo = m
}

func (c *Canvas) Rotate(theta float64) {
	var m ebiten.GeoM
	m.Rotate(theta)
	m.Concat(c.geo)
	c.geo = m
}

func (c *Canvas) StrokeRect(x, y, w, h, width float64, clr color.Color) {
	c.stroke(rectPath(x, y, w, h), width, clr)
}

func (c *Canvas) FillRect(x, y, w, h float64, clr color.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	c.fill(rectPath(x, y, w, h), clr)
}

func (c *Canvas) FillPolygon(points []render.Point, clr color.Color) {
	if len(points) < 3 {
		return
	}
	c.fill(polygonPath(points), clr)
}

func (c *Canvas) StrokePolygon(points []render.Point, width float64, clr color.Color) {
	if len(points) < 2 {
		return
	}
	c.stroke(polygonPath(points), width, clr)
}

// DrawSprite draws the named sprite scaled into the given box. Unknown
// names draw nothing.
func (c *Canvas) DrawSprite(name string, x, y, w, h float64) {
	img := c.assets.Sprite(name)
	if img == nil {
		return
	}
	size := img.Bounds().Size()

	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	op.GeoM.Scale(w/float64(size.X), h/float64(size.Y))
	op.GeoM.Translate(x, y)
	op.GeoM.Concat(c.geo)
	c.target.DrawImage(img, op)
}

func (c *Canvas) fill(p *vector.Path, clr color.Color) {
	vs, is := p.AppendVerticesAndIndicesForFilling(nil, nil)
	c.drawTriangles(vs, is, clr)
}

func (c *Canvas) stroke(p *vector.Path, width float64, clr color.Color) {
	vs, is := p.AppendVerticesAndIndicesForStroke(nil, nil, &vector.StrokeOptions{
		Width:      float32(width),
		LineJoin:   vector.LineJoinMiter,
		MiterLimit: 10,
	})
	c.drawTriangles(vs, is, clr)
}

func (c *Canvas) drawTriangles(vs []ebiten.Vertex, is []uint16, clr color.Color) {
	if len(is) == 0 {
		return
	}
	n := color.NRGBAModel.Convert(clr).(color.NRGBA)
	for i := range vs {
		x, y := c.geo.Apply(float64(vs[i].DstX), float64(vs[i].DstY))
		vs[i].DstX = float32(x)
		vs[i].DstY = float32(y)
		vs[i].SrcX = 1
		vs[i].SrcY = 1
		vs[i].ColorR = float32(n.R) / 0xff
		vs[i].ColorG = float32(n.G) / 0xff
		vs[i].ColorB = float32(n.B) / 0xff
		vs[i].ColorA = float32(n.A) / 0xff
	}
	c.target.DrawTriangles(vs, is, whiteSubImage, &ebiten.DrawTrianglesOptions{AntiAlias: true})
}

func rectPath(x, y, w, h float64) *vector.Path {
	var p vector.Path
	p.MoveTo(float32(x), float32(y))
	p.LineTo(float32(x+w), float32(y))
	p.LineTo(float32(x+w), float32(y+h))
	p.LineTo(float32(x), float32(y+h))
	p.Close()
	return &p
}

func polygonPath(points []render.Point) *vector.Path {
	var p vector.Path
	p.MoveTo(float32(points[0].X), float32(points[0].Y))
	for _, pt := range points[1:] {
		p.LineTo(float32(pt.X), float32(pt.Y))
	}
	p.Close()
	return &p
}
