package client

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/wricardo/arena-io/client/render"
)

const (
	EnvServerURL = "ARENA_SERVER_URL"
	EnvUsername  = "ARENA_USERNAME"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Settings configures the desktop client.
type Settings struct {
	ServerURL    string `toml:"server_url"`
	Username     string `toml:"username"`
	WindowWidth  int    `toml:"window_width"`
	WindowHeight int    `toml:"window_height"`
	ThrottleMS   int    `toml:"throttle_ms"`
	ChatAckMS    int    `toml:"chat_ack_ms"`

	// World geometry; must match the arena the server runs.
	MapSize      float64 `toml:"map_size"`
	PlayerRadius float64 `toml:"player_radius"`
	PlayerMaxHP  float64 `toml:"player_max_hp"`
	BulletRadius float64 `toml:"bullet_radius"`
}

// DefaultSettings returns settings for a local server and the default arena.
func DefaultSettings() Settings {
	geometry := render.DefaultOptions()
	return Settings{
		ServerURL:    "ws://localhost:8080/ws",
		WindowWidth:  1024,
		WindowHeight: 768,
		ThrottleMS:   20,
		ChatAckMS:    3000,
		MapSize:      geometry.MapSize,
		PlayerRadius: geometry.PlayerRadius,
		PlayerMaxHP:  geometry.PlayerMaxHP,
		BulletRadius: geometry.BulletRadius,
	}
}

// LoadSettings reads a TOML settings file over the defaults, then applies
// environment overrides. A missing file is not an error.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &s); err != nil {
				return Settings{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return Settings{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	s.ApplyEnv(os.Getenv)

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ApplyEnv overrides the server url and username from the environment.
func (s *Settings) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvServerURL)); v != "" {
		s.ServerURL = v
	}
	if v := strings.TrimSpace(getenv(EnvUsername)); v != "" {
		s.Username = v
	}
}

// Validate checks the settings for values the client cannot run with.
func (s Settings) Validate() error {
	u, err := url.Parse(s.ServerURL)
	if err != nil {
		return fmt.Errorf("%w: server_url: %v", ErrInvalidSettings, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: server_url must use ws or wss, got %q", ErrInvalidSettings, s.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: server_url has no host", ErrInvalidSettings)
	}
	if s.WindowWidth <= 0 || s.WindowHeight <= 0 {
		return fmt.Errorf("%w: window size must be positive, got %dx%d", ErrInvalidSettings, s.WindowWidth, s.WindowHeight)
	}
	if s.ThrottleMS < 0 || s.ChatAckMS < 0 {
		return fmt.Errorf("%w: throttle_ms and chat_ack_ms cannot be negative", ErrInvalidSettings)
	}
	if s.MapSize <= 0 || s.PlayerRadius <= 0 || s.PlayerMaxHP <= 0 || s.BulletRadius <= 0 {
		return fmt.Errorf("%w: world geometry must be positive", ErrInvalidSettings)
	}
	return nil
}

// InputInterval is the steering throttle window.
func (s Settings) InputInterval() time.Duration {
	return time.Duration(s.ThrottleMS) * time.Millisecond
}

// AckTimeout is how long a chat message waits for its echo.
func (s Settings) AckTimeout() time.Duration {
	return time.Duration(s.ChatAckMS) * time.Millisecond
}

// RenderOptions returns the geometry the render loop draws with.
func (s Settings) RenderOptions() render.Options {
	return render.Options{
		MapSize:      s.MapSize,
		PlayerRadius: s.PlayerRadius,
		PlayerMaxHP:  s.PlayerMaxHP,
		BulletRadius: s.BulletRadius,
	}
}
