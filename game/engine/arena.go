package engine

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/arena-io/protocol"
)

// Arena is the reference simulation. Every tick it moves players and
// bullets, applies hits, removes dead players and pushes one update
// snapshot to each participant.
type Arena struct {
	cfg *ArenaConfig

	mu         sync.Mutex
	players    map[string]*Player
	bullets    []*Bullet
	nextBullet int
	rng        *rand.Rand
	now        func() time.Time
}

// NewArena creates an empty arena with validated rules.
func NewArena(cfg *ArenaConfig) (*Arena, error) {
	if cfg == nil {
		cfg = DefaultArenaConfig()
	}
	if err := ValidateArenaConfig(cfg); err != nil {
		return nil, err
	}
	return &Arena{
		cfg:     cfg,
		players: make(map[string]*Player),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}, nil
}

// Config returns the arena rules.
func (a *Arena) Config() *ArenaConfig {
	return a.cfg
}

// AddPlayer spawns a player for conn. Joining again respawns it.
func (a *Arena) AddPlayer(conn protocol.Sender, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Spawn away from the edges
	x := a.cfg.MapSize * (0.25 + a.rng.Float64()*0.5)
	y := a.cfg.MapSize * (0.25 + a.rng.Float64()*0.5)

	a.players[conn.ID()] = &Player{
		ID:        conn.ID(),
		Name:      name,
		X:         x,
		Y:         y,
		Direction: a.rng.Float64() * 2 * math.Pi,
		HP:        a.cfg.PlayerMaxHP,
		conn:      conn,
	}
}

// HandleInput steers the player owned by conn. Unknown players are ignored.
func (a *Arena) HandleInput(conn protocol.Sender, direction float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p, ok := a.players[conn.ID()]; ok {
		p.Direction = direction
	}
}

// RemovePlayer drops the player owned by conn.
func (a *Arena) RemovePlayer(conn protocol.Sender) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.players, conn.ID())
}

// Players returns a summary of every live player ordered by id.
func (a *Arena) Players() []PlayerView {
	a.mu.Lock()
	defer a.mu.Unlock()

	sorted := a.sortedPlayers()
	out := make([]PlayerView, len(sorted))
	for i, p := range sorted {
		out[i] = p.view()
	}
	return out
}

// PlayerCount returns the number of live players.
func (a *Arena) PlayerCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.players)
}

// Run ticks the arena at its configured rate until ctx is done.
func (a *Arena) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(a.cfg.TickRate))
	defer ticker.Stop()

	log.Info().Str("arena", a.cfg.Name).Int("tick_rate", a.cfg.TickRate).Msg("Arena running")

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			a.Step(now.Sub(last).Seconds())
			last = now
		}
	}
}

type delivery struct {
	conn    protocol.Sender
	msgType string
	payload any
}

// Step advances the world by dt seconds and delivers the resulting messages.
func (a *Arena) Step(dt float64) {
	a.mu.Lock()
	out := a.step(dt)
	a.mu.Unlock()

	for _, d := range out {
		if err := d.conn.Send(d.msgType, d.payload); err != nil {
			log.Debug().Err(err).Str("conn", d.conn.ID()).Str("type", d.msgType).Msg("Dropping arena message")
		}
	}
}

func (a *Arena) step(dt float64) []delivery {
	cfg := a.cfg

	kept := a.bullets[:0]
	for _, b := range a.bullets {
		if !b.Move(dt, cfg.BulletSpeed, cfg.MapSize) {
			kept = append(kept, b)
		}
	}
	a.bullets = kept

	players := a.sortedPlayers()
	for _, p := range players {
		p.Move(dt, cfg.PlayerSpeed, cfg.MapSize)
		p.Score += dt * ScorePerSecond
		p.FireCooldown -= dt
		if p.FireCooldown <= 0 {
			p.FireCooldown += cfg.PlayerFireCooldown
			a.bullets = append(a.bullets, a.fire(p))
		}
	}

	remaining := a.bullets[:0]
	for _, b := range a.bullets {
		hit := false
		for _, p := range players {
			if !b.Hits(p, cfg.PlayerRadius, cfg.BulletRadius) {
				continue
			}
			p.HP -= cfg.BulletDamage
			if shooter, ok := a.players[b.ParentID]; ok {
				shooter.Score += ScoreBulletHit
			}
			hit = true
			break
		}
		if !hit {
			remaining = append(remaining, b)
		}
	}
	a.bullets = remaining

	var out []delivery
	alive := players[:0]
	for _, p := range players {
		if p.HP > 0 {
			alive = append(alive, p)
			continue
		}
		delete(a.players, p.ID)
		out = append(out, delivery{p.conn, protocol.MsgGameOver, protocol.GameOver{
			Reason: DeathReasonShot,
			Score:  int(p.Score),
		}})
	}

	leaderboard := Leaderboard(alive, cfg.LeaderboardSize)
	t := a.now().UnixMilli()
	for _, p := range alive {
		out = append(out, delivery{p.conn, protocol.MsgGameUpdate, a.snapshot(p, alive, leaderboard, t)})
	}
	return out
}

func (a *Arena) fire(p *Player) *Bullet {
	a.nextBullet++
	return &Bullet{
		ID:        strconv.Itoa(a.nextBullet),
		ParentID:  p.ID,
		X:         p.X,
		Y:         p.Y,
		Direction: p.Direction,
	}
}

func (a *Arena) snapshot(me *Player, players []*Player, leaderboard []protocol.LeaderboardEntry, t int64) protocol.Snapshot {
	self := me.entity()
	snap := protocol.Snapshot{
		T:           t,
		Me:          &self,
		Others:      []protocol.Entity{},
		Bullets:     []protocol.Projectile{},
		Leaderboard: leaderboard,
	}

	view := a.cfg.ViewDistance
	for _, p := range players {
		if p != me && Distance(p.X, p.Y, me.X, me.Y) <= view {
			snap.Others = append(snap.Others, p.entity())
		}
	}
	for _, b := range a.bullets {
		if Distance(b.X, b.Y, me.X, me.Y) <= view {
			snap.Bullets = append(snap.Bullets, b.projectile())
		}
	}
	return snap
}

func (a *Arena) sortedPlayers() []*Player {
	out := make([]*Player, 0, len(a.players))
	for _, p := range a.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
