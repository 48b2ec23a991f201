// Command analyze prints quick, human-readable heuristics about the arena
// configurations in the project's configs directory: how long a fight
// lasts, how long it takes to cross the map, and how crowded the map gets.
package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/wricardo/arena-io/game/engine"
)

// crowdedArea is the map area per ship below which an arena feels crowded.
const crowdedArea = 500 * 500

// Analysis summarizes one arena configuration.
type Analysis struct {
	Name          string
	ShotsToKill   int
	TimeToKill    float64 // seconds of uninterrupted fire
	CrossingTime  float64 // seconds for a ship to cross the map
	BulletFlight  float64 // seconds for a bullet to cross the view distance
	ViewFraction  float64 // share of the map width a ship can see
	CrowdedAtSize int     // player count at which the map gets crowded
}

func analyze(config *engine.ArenaConfig) Analysis {
	shots := int(math.Ceil(config.PlayerMaxHP / config.BulletDamage))
	return Analysis{
		Name:          config.Name,
		ShotsToKill:   shots,
		TimeToKill:    float64(shots-1) * config.PlayerFireCooldown,
		CrossingTime:  config.MapSize / config.PlayerSpeed,
		BulletFlight:  config.ViewDistance / config.BulletSpeed,
		ViewFraction:  math.Min(1, 2*config.ViewDistance/config.MapSize),
		CrowdedAtSize: int(config.MapSize * config.MapSize / crowdedArea),
	}
}

func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}
	files, err := filepath.Glob(filepath.Join(configDir, "*.toml"))
	if err != nil || len(files) == 0 {
		fmt.Printf("No arena configurations found in %s\n", configDir)
		return
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		config, err := engine.LoadArenaConfig(file)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			continue
		}
		report(analyze(config))
	}
}

func report(a Analysis) {
	fmt.Printf("Name: %s\n", a.Name)
	fmt.Printf("Shots to kill: %d (%.2fs of constant fire)\n", a.ShotsToKill, a.TimeToKill)
	fmt.Printf("Map crossing: %.1fs\n", a.CrossingTime)
	fmt.Printf("Bullet flight across view: %.2fs\n", a.BulletFlight)
	fmt.Printf("Visible map width: %.0f%%\n", a.ViewFraction*100)
	fmt.Printf("Crowded at: %d players\n", a.CrowdedAtSize)

	if a.ViewFraction >= 1 {
		fmt.Printf("⚠️  Every ship sees the whole map; nobody can hide\n")
	}
	if a.TimeToKill < 0.5 {
		fmt.Printf("⚠️  Fights end in under half a second\n")
	}
}
