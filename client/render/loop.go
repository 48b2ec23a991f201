package render

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/arena-io/protocol"
)

// ShipSprite is the sprite drawn for every player.
const ShipSprite = "ship"

const (
	menuOrbitRadius = 800
	menuOrbitPeriod = 7500 // milliseconds per radian
)

// Mode selects which painter runs on each frame.
type Mode int

const (
	Menu Mode = iota
	Game
)

func (m Mode) String() string {
	if m == Game {
		return "game"
	}
	return "menu"
}

// SnapshotSource supplies the latest world snapshot.
type SnapshotSource interface {
	Current() *protocol.Snapshot
}

// Options holds the world geometry the painters need.
type Options struct {
	MapSize      float64
	PlayerRadius float64
	PlayerMaxHP  float64
	BulletRadius float64
}

// DefaultOptions matches the default arena.
func DefaultOptions() Options {
	return Options{
		MapSize:      3000,
		PlayerRadius: 20,
		PlayerMaxHP:  100,
		BulletRadius: 3,
	}
}

// Loop alternates between a menu painter and a game painter. Exactly one
// frame is pending at any time until Close.
type Loop struct {
	sched   FrameScheduler
	surface Surface
	source  SnapshotSource
	opts    Options

	mu      sync.Mutex
	mode    Mode
	pending FrameID
	focus   Point
	frames  uint64
	closed  bool
}

// NewLoop creates a loop in Menu mode and schedules its first frame.
func NewLoop(sched FrameScheduler, surface Surface, source SnapshotSource, opts Options) *Loop {
	def := DefaultOptions()
	if opts.MapSize <= 0 {
		opts.MapSize = def.MapSize
	}
	if opts.PlayerRadius <= 0 {
		opts.PlayerRadius = def.PlayerRadius
	}
	if opts.PlayerMaxHP <= 0 {
		opts.PlayerMaxHP = def.PlayerMaxHP
	}
	if opts.BulletRadius <= 0 {
		opts.BulletRadius = def.BulletRadius
	}

	l := &Loop{
		sched:   sched,
		surface: surface,
		source:  source,
		opts:    opts,
		focus:   Point{X: opts.MapSize / 2, Y: opts.MapSize / 2},
	}
	l.mu.Lock()
	l.schedule(Menu)
	l.mu.Unlock()
	return l
}

// StartRendering replaces the menu painter with the game painter.
func (l *Loop) StartRendering() {
	l.switchTo(Game)
}

// StopRendering replaces the game painter with the menu painter.
func (l *Loop) StopRendering() {
	l.switchTo(Menu)
}

func (l *Loop) switchTo(mode Mode) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.sched.CancelFrame(l.pending)
	l.schedule(mode)
	log.Debug().Stringer("mode", mode).Msg("Render mode switched")
}

// schedule requests the next frame for mode. l.mu must be held.
func (l *Loop) schedule(mode Mode) {
	var id FrameID
	id = l.sched.RequestFrame(func(now time.Time) {
		l.tick(id, mode, now)
	})
	l.pending = id
	l.mode = mode
}

func (l *Loop) tick(id FrameID, mode Mode, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// A frame cancelled after the scheduler already picked it up.
	if l.closed || id != l.pending {
		return
	}

	switch mode {
	case Game:
		l.paintGame()
	default:
		l.paintMenu(now)
	}
	l.frames++
	l.schedule(mode)
}

// Mode returns the active painter.
func (l *Loop) Mode() Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

// Focus returns the world point the last painted frame was centred on.
func (l *Loop) Focus() Point {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.focus
}

// Frames counts painted frames.
func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// Close cancels the pending frame. The loop cannot be restarted.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	l.sched.CancelFrame(l.pending)
	l.pending = 0
}

func (l *Loop) paintMenu(now time.Time) {
	t := float64(now.UnixMilli()) / menuOrbitPeriod
	l.focus = Point{
		X: l.opts.MapSize/2 + menuOrbitRadius*math.Cos(t),
		Y: l.opts.MapSize/2 + menuOrbitRadius*math.Sin(t),
	}
	l.surface.Clear()
}

func (l *Loop) paintGame() {
	var snap *protocol.Snapshot
	if l.source != nil {
		snap = l.source.Current()
	}
	if snap == nil || snap.Me == nil {
		return
	}
	me := snap.Me
	l.focus = Point{X: me.X, Y: me.Y}

	w, h := l.surface.Size()
	cx, cy := w/2, h/2

	l.surface.Clear()
	l.surface.StrokeRect(cx-me.X, cy-me.Y, l.opts.MapSize, l.opts.MapSize, 5, colorWhite)

	for _, b := range snap.Bullets {
		l.paintBullet(cx, cy, me, b)
	}

	l.paintPlayer(cx, cy, me, *me)
	for _, p := range snap.Others {
		l.paintPlayer(cx, cy, me, p)
	}
}

func (l *Loop) paintPlayer(cx, cy float64, me *protocol.Entity, p protocol.Entity) {
	s := l.surface
	r := l.opts.PlayerRadius
	x := cx + p.X - me.X
	y := cy + p.Y - me.Y

	s.Save()
	s.Translate(x, y)
	s.Rotate(p.Direction)
	s.DrawSprite(ShipSprite, -r, -r, r*2, r*2)
	s.Restore()

	health := math.Min(1, math.Max(0, p.HP/l.opts.PlayerMaxHP))
	s.FillRect(x-r, y+r+8, r*2, 2, colorWhite)
	s.FillRect(x-r+r*2*health, y+r+8, r*2*(1-health), 2, colorRed)
}

func (l *Loop) paintBullet(cx, cy float64, me *protocol.Entity, b protocol.Projectile) {
	s := l.surface
	bw := l.opts.BulletRadius * 2
	bh := l.opts.BulletRadius * 4

	s.Save()
	s.Translate(cx+b.X-me.X, cy+b.Y-me.Y)
	// Points away from the viewer, not along the bullet's heading.
	s.Rotate(math.Atan2(b.Y-me.Y, b.X-me.X) + math.Pi/2)

	s.FillRect(-bw/2, -bh/2, bw, bh, colorOrange)
	s.StrokeRect(-bw/2, -bh/2, bw, bh, 2, colorBlack)

	nose := []Point{
		{X: 0, Y: -bh / 2},
		{X: -bw / 2, Y: -bh/2 - 5},
		{X: bw / 2, Y: -bh/2 - 5},
	}
	s.FillPolygon(nose, colorOrange)
	s.StrokePolygon(nose, 2, colorBlack)
	s.Restore()
}
