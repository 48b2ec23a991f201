package ebitenui

import (
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/wricardo/arena-io/client/render"
)

const spriteSize = 64

var (
	shipFill    = color.RGBA{80, 200, 255, 255}
	shipOutline = color.RGBA{255, 255, 255, 255}
)

// Assets hands out sprites by name. Sprites are drawn on first use.
type Assets struct {
	once    sync.Once
	sprites map[string]*ebiten.Image
}

func NewAssets() *Assets {
	return &Assets{}
}

// Sprite returns the named sprite, or nil if there is none.
func (a *Assets) Sprite(name string) *ebiten.Image {
	a.once.Do(a.load)
	return a.sprites[name]
}

func (a *Assets) load() {
	a.sprites = map[string]*ebiten.Image{
		render.ShipSprite: drawShip(),
	}
}

// drawShip draws an arrowhead pointing up, the zero heading.
func drawShip() *ebiten.Image {
	img := ebiten.NewImage(spriteSize, spriteSize)
	c := &Canvas{target: img}

	hull := []render.Point{
		{X: 32, Y: 4},
		{X: 58, Y: 58},
		{X: 32, Y: 46},
		{X: 6, Y: 58},
	}
	// The hull is concave, so fill it as two triangles.
	c.FillPolygon(hull[:3], shipFill)
	c.FillPolygon([]render.Point{hull[0], hull[2], hull[3]}, shipFill)
	c.StrokePolygon(hull, 3, shipOutline)
	return img
}
