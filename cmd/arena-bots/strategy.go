package main

import (
	"math"
	"time"

	"github.com/wricardo/arena-io/protocol"
)

// wallMargin is how close to the edge a bot gets before turning back.
const wallMargin = 150

// Strategy picks a heading from the latest snapshot. ok is false when the
// bot has nothing to steer (not in the game yet).
type Strategy interface {
	Next(snap *protocol.Snapshot, now time.Time) (direction float64, ok bool)
}

// headingTo returns the heading from (x, y) towards (tx, ty). Zero points up
// and y grows downwards.
func headingTo(x, y, tx, ty float64) float64 {
	return math.Atan2(tx-x, y-ty)
}

// nearWall reports whether (x, y) is within wallMargin of the map edge.
func nearWall(x, y, mapSize float64) bool {
	return x < wallMargin || y < wallMargin || x > mapSize-wallMargin || y > mapSize-wallMargin
}

// Hunter chases the nearest visible ship and heads back to the centre when
// it sees nobody or drifts close to a wall.
type Hunter struct {
	MapSize float64
}

func (h Hunter) Next(snap *protocol.Snapshot, _ time.Time) (float64, bool) {
	if snap == nil || snap.Me == nil {
		return 0, false
	}
	me := snap.Me
	centre := h.MapSize / 2

	if nearWall(me.X, me.Y, h.MapSize) {
		return headingTo(me.X, me.Y, centre, centre), true
	}

	best := math.Inf(1)
	var target *protocol.Entity
	for i := range snap.Others {
		o := &snap.Others[i]
		if d := math.Hypot(o.X-me.X, o.Y-me.Y); d < best {
			best = d
			target = o
		}
	}
	if target == nil {
		return headingTo(me.X, me.Y, centre, centre), true
	}
	return headingTo(me.X, me.Y, target.X, target.Y), true
}

// Wanderer circles the map centre, completing one lap per Period.
type Wanderer struct {
	MapSize float64
	Period  time.Duration
	Radius  float64
}

func (w Wanderer) Next(snap *protocol.Snapshot, now time.Time) (float64, bool) {
	if snap == nil || snap.Me == nil {
		return 0, false
	}
	period := w.Period
	if period <= 0 {
		period = 30 * time.Second
	}
	radius := w.Radius
	if radius <= 0 {
		radius = w.MapSize / 4
	}

	phase := 2 * math.Pi * float64(now.UnixNano()%int64(period)) / float64(period)
	centre := w.MapSize / 2
	tx := centre + radius*math.Cos(phase)
	ty := centre + radius*math.Sin(phase)
	return headingTo(snap.Me.X, snap.Me.Y, tx, ty), true
}

// newStrategy returns the named strategy, defaulting to Hunter.
func newStrategy(name string, mapSize float64) Strategy {
	switch name {
	case "wander", "wanderer":
		return Wanderer{MapSize: mapSize}
	default:
		return Hunter{MapSize: mapSize}
	}
}
