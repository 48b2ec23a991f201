// Command validate checks the arena configuration TOML files in a configs
// directory (default ../configs). It checks:
//   - TOML syntax and unknown keys
//   - The engine's rule constraints (sizes, speeds, damage, tick rate)
//   - Playability: bullets cannot skip over a ship between two ticks, ships
//     move less than their own radius per tick, and the view distance covers
//     the narrowest client window
package main

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/wricardo/arena-io/game/engine"
)

// minViewDistance is half the narrowest world slice a client draws.
const minViewDistance = 400

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateConfig loads and validates a single arena TOML file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	config := engine.DefaultArenaConfig()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(config); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			result.Valid = false
			for _, e := range strict.Errors {
				result.Errors = append(result.Errors, fmt.Sprintf("Unknown key: %s", strings.Join(e.Key(), ".")))
			}
			return result
		}
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid TOML: %v", err))
		return result
	}

	if err := engine.ValidateArenaConfig(config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	playability := validatePlayability(config)
	result.Valid = playability.Valid
	result.Errors = append(result.Errors, playability.Errors...)

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", config.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Map: %.0fx%.0f", config.MapSize, config.MapSize))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Tick rate: %d Hz", config.TickRate))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Shots to kill: %.0f", math.Ceil(config.PlayerMaxHP/config.BulletDamage)))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Crossing time: %.1fs", config.MapSize/config.PlayerSpeed))
	}

	return result
}

// validatePlayability checks per-tick movement against the collision
// geometry. Collisions are only tested at tick boundaries.
func validatePlayability(config *engine.ArenaConfig) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}
	tick := float64(config.TickRate)

	bulletStep := config.BulletSpeed / tick
	hitbox := 2 * (config.PlayerRadius + config.BulletRadius)
	if bulletStep >= hitbox {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(
			"Bullets move %.1f per tick but the hit window is %.1f wide; raise tick_rate or lower bullet_speed",
			bulletStep, hitbox))
	}

	playerStep := config.PlayerSpeed / tick
	if playerStep >= config.PlayerRadius {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(
			"Ships move %.1f per tick, more than their radius %.1f",
			playerStep, config.PlayerRadius))
	}

	if config.ViewDistance < minViewDistance {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(
			"view_distance %.0f is smaller than half the narrowest client view (%d)",
			config.ViewDistance, minViewDistance))
	}

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Bullet step: %.1f of %.1f per tick", bulletStep, hitbox))
	}
	return result
}

// main validates every *.toml file in the configs directory, printing a
// concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}
	files, err := filepath.Glob(filepath.Join(configDir, "*.toml"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No arena configurations found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
