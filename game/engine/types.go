package engine

import "github.com/wricardo/arena-io/protocol"

const (
	// Validation bounds
	MinMapSize     = 200.0
	MaxMapSize     = 20000.0
	MinTickRate    = 1
	MaxTickRate    = 240
	MaxLeaderboard = 20

	// Scoring
	ScorePerSecond = 1.0
	ScoreBulletHit = 20.0

	DefaultLeaders  = 5
	DeathReasonShot = "shot down"
)

// ArenaConfig holds the rules of one arena. Durations are in seconds,
// distances in world units.
type ArenaConfig struct {
	Name               string  `toml:"name" json:"name"`
	Description        string  `toml:"description" json:"description"`
	MapSize            float64 `toml:"map_size" json:"map_size"`
	PlayerRadius       float64 `toml:"player_radius" json:"player_radius"`
	PlayerMaxHP        float64 `toml:"player_max_hp" json:"player_max_hp"`
	PlayerSpeed        float64 `toml:"player_speed" json:"player_speed"`
	PlayerFireCooldown float64 `toml:"player_fire_cooldown" json:"player_fire_cooldown"`
	BulletRadius       float64 `toml:"bullet_radius" json:"bullet_radius"`
	BulletSpeed        float64 `toml:"bullet_speed" json:"bullet_speed"`
	BulletDamage       float64 `toml:"bullet_damage" json:"bullet_damage"`
	TickRate           int     `toml:"tick_rate" json:"tick_rate"`
	ViewDistance       float64 `toml:"view_distance" json:"view_distance"`
	LeaderboardSize    int     `toml:"leaderboard_size" json:"leaderboard_size"`
}

// Player is a live participant.
type Player struct {
	ID           string
	Name         string
	X, Y         float64
	Direction    float64
	HP           float64
	FireCooldown float64
	Score        float64

	conn protocol.Sender
}

// Bullet is a projectile fired by a player.
type Bullet struct {
	ID        string
	ParentID  string
	X, Y      float64
	Direction float64
}

// PlayerView is the read-only summary exposed to the lobby.
type PlayerView struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	HP    float64 `json:"hp"`
	Score int     `json:"score"`
}

func (p *Player) entity() protocol.Entity {
	return protocol.Entity{
		ID:        p.ID,
		Name:      p.Name,
		X:         p.X,
		Y:         p.Y,
		Direction: p.Direction,
		HP:        p.HP,
	}
}

func (p *Player) view() PlayerView {
	return PlayerView{
		ID:    p.ID,
		Name:  p.Name,
		X:     p.X,
		Y:     p.Y,
		HP:    p.HP,
		Score: int(p.Score),
	}
}

func (b *Bullet) projectile() protocol.Projectile {
	return protocol.Projectile{
		ID:        b.ID,
		X:         b.X,
		Y:         b.Y,
		Direction: b.Direction,
	}
}
