// Package config provides arena configuration management.
//
// The config package handles:
//   - Loading arena rules from TOML files
//   - Caching loaded configurations
//   - Default configuration selection
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Arena configurations are TOML files in the configs directory. Any field a
// file omits keeps its built-in default, so a file may override only what it
// changes:
//
//	name = "duel"
//	description = "Small map for two players"
//	map_size = 1200
//	player_speed = 350
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific configuration
//	arenaConfig, err := manager.LoadConfig("duel")
//
//	// Get default configuration (default.toml, or built-in rules)
//	defaultConfig := manager.GetDefault()
//
// Validation:
//
// Every file is validated with engine.ValidateArenaConfig before it is
// cached. Invalid files are skipped by ListConfigs and reported as
// ErrInvalidConfig by LoadConfig.
package config
