// Package service provides the lobby layer of the arena server.
//
// The service package implements:
//   - Chat history reads and chat posts from outside the game stream
//   - Player and arena summaries
//   - Configuration listing and loading
//
// Core Interfaces:
//
// LobbyService is the service interface used by the HTTP API and, through
// the API, by the MCP tools. SessionManager, ChatRoom, Arena and
// ConfigManager are the narrow views it needs of the session, chat, engine
// and config packages.
//
// Architecture:
//
// The service layer sits between the HTTP transport and the running arena.
// Realtime traffic never passes through it: the websocket hub talks to the
// session manager directly. Chat posted here goes through the same room as
// websocket chat, so HTTP and websocket clients share one history and one
// broadcast order.
//
// Usage:
//
//	lobby := service.NewLobbyService(sessions, room, arena, configs)
//
//	msg, err := lobby.PostChat(ctx, service.ChatRequest{
//		Username: "ops",
//		Message:  "server restarts in 5 minutes",
//	})
package service
