package engine

import "math"

// Move advances the player along its heading and keeps it inside the map.
// Direction 0 points up, increasing clockwise.
func (p *Player) Move(dt, speed, mapSize float64) {
	p.X += dt * speed * math.Sin(p.Direction)
	p.Y -= dt * speed * math.Cos(p.Direction)
	p.X = clamp(p.X, 0, mapSize)
	p.Y = clamp(p.Y, 0, mapSize)
}

// Move advances the bullet and reports whether it left the map.
func (b *Bullet) Move(dt, speed, mapSize float64) bool {
	b.X += dt * speed * math.Sin(b.Direction)
	b.Y -= dt * speed * math.Cos(b.Direction)
	return b.X < 0 || b.X > mapSize || b.Y < 0 || b.Y > mapSize
}

// Hits reports whether bullet b overlaps player p. A bullet never hits the
// player that fired it.
func (b *Bullet) Hits(p *Player, playerRadius, bulletRadius float64) bool {
	if b.ParentID == p.ID {
		return false
	}
	return Distance(b.X, b.Y, p.X, p.Y) <= playerRadius+bulletRadius
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
