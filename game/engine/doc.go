// Package engine provides the reference arena simulation.
//
// The engine package implements:
//   - Arena rules loaded from TOML and validated for playability
//   - Continuous movement on a square map with heading-based steering
//   - Auto-fire, bullet travel and hit detection
//   - Per-viewer snapshots limited to the view distance, with a leaderboard
//
// Core Types:
//
// ArenaConfig holds the rules. Arena owns every Player and Bullet and
// implements the session.Simulation contract, so the session layer can
// forward join, input and disconnect events to it.
//
// Usage:
//
//	cfg, err := engine.LoadArenaConfig("configs/default.toml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	arena, err := engine.NewArena(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	go arena.Run(ctx)
//
// Game Rules:
//
// Headings are radians with 0 pointing up. Players move at a constant speed
// toward their heading and fire automatically on a cooldown. Each hit costs
// the target bullet_damage HP and earns the shooter points; survival earns
// one point per second. A player reaching zero HP receives a dead message and
// leaves the arena.
package engine
