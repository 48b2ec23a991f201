package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultArenaConfig returns the stock arena rules.
func DefaultArenaConfig() *ArenaConfig {
	return &ArenaConfig{
		Name:               "default",
		Description:        "Open arena with the stock rules",
		MapSize:            3000,
		PlayerRadius:       20,
		PlayerMaxHP:        100,
		PlayerSpeed:        400,
		PlayerFireCooldown: 0.25,
		BulletRadius:       3,
		BulletSpeed:        800,
		BulletDamage:       10,
		TickRate:           60,
		ViewDistance:       1500,
		LeaderboardSize:    DefaultLeaders,
	}
}

// ValidateArenaConfig checks that the rules describe a playable arena.
func ValidateArenaConfig(config *ArenaConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.MapSize < MinMapSize || config.MapSize > MaxMapSize {
		return fmt.Errorf("config validation: map_size must be between %.0f and %.0f, got %v", MinMapSize, MaxMapSize, config.MapSize)
	}
	if config.PlayerRadius <= 0 || config.PlayerRadius*2 >= config.MapSize {
		return fmt.Errorf("config validation: player_radius must be positive and fit the map, got %v", config.PlayerRadius)
	}
	if config.PlayerMaxHP <= 0 {
		return fmt.Errorf("config validation: player_max_hp must be positive, got %v", config.PlayerMaxHP)
	}
	if config.PlayerSpeed <= 0 {
		return fmt.Errorf("config validation: player_speed must be positive, got %v", config.PlayerSpeed)
	}
	if config.PlayerFireCooldown <= 0 {
		return fmt.Errorf("config validation: player_fire_cooldown must be positive, got %v", config.PlayerFireCooldown)
	}
	if config.BulletRadius <= 0 {
		return fmt.Errorf("config validation: bullet_radius must be positive, got %v", config.BulletRadius)
	}
	if config.BulletSpeed <= config.PlayerSpeed {
		return fmt.Errorf("config validation: bullet_speed must exceed player_speed (%v), got %v", config.PlayerSpeed, config.BulletSpeed)
	}
	if config.BulletDamage <= 0 || config.BulletDamage > config.PlayerMaxHP {
		return fmt.Errorf("config validation: bullet_damage must be between 0 and player_max_hp (%v), got %v", config.PlayerMaxHP, config.BulletDamage)
	}
	if config.TickRate < MinTickRate || config.TickRate > MaxTickRate {
		return fmt.Errorf("config validation: tick_rate must be between %d and %d, got %d", MinTickRate, MaxTickRate, config.TickRate)
	}
	if config.ViewDistance <= 0 {
		return fmt.Errorf("config validation: view_distance must be positive, got %v", config.ViewDistance)
	}
	if config.LeaderboardSize < 0 || config.LeaderboardSize > MaxLeaderboard {
		return fmt.Errorf("config validation: leaderboard_size must be between 0 and %d, got %d", MaxLeaderboard, config.LeaderboardSize)
	}
	return nil
}

// ParseArenaConfig decodes TOML rules. Fields missing from data keep their
// default values.
func ParseArenaConfig(data []byte) (*ArenaConfig, error) {
	config := DefaultArenaConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse arena config: %w", err)
	}
	if err := ValidateArenaConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadArenaConfig reads and validates a TOML arena file.
func LoadArenaConfig(filename string) (*ArenaConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	return ParseArenaConfig(data)
}
