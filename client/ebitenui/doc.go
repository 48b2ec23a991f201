// Package ebitenui runs the arena client in a desktop window.
//
// Canvas implements render.Surface on an offscreen ebiten image and Game
// implements ebiten.Game: each Draw flushes the render.FrameQueue, copies
// the canvas to the screen and overlays the status line, leaderboard and
// chat. Controls:
//
//	ENTER   join the game
//	mouse   steer
//	T       open chat, ENTER to send, ESC to cancel
//	R       reconnect after the connection dropped
package ebitenui
