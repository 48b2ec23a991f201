// Package client is the player-side half of the arena.
//
// An App owns one connection manager, the latest snapshot, the chat mirror
// and the render loop:
//
//	app := client.NewApp(settings, surface, frames)
//	if err := app.Start(ctx); err != nil { ... }
//	app.Play("alice")
//	app.Steer(client.DirectionTo(mouseX, mouseY, w, h))
//	app.Say("gg")
//
// Settings come from a TOML file with ARENA_SERVER_URL and ARENA_USERNAME
// overrides. Drawing and frame timing are supplied by the host; see
// client/ebitenui for the desktop window.
package client
