// Package network owns the client's single websocket connection to the
// arena server.
//
// The network package implements:
//   - Connection state tracking and a one-shot readiness gate
//   - Demultiplexing of inbound envelopes by type
//   - Outbound join, steering and chat messages
//   - Trailing-edge throttling of steering input
//
// Lifecycle:
//
//	m := network.NewManager(network.Options{URL: "ws://localhost:8080/ws", ...})
//	go m.Dial(ctx)
//	m.Connect(ctx, onGameOver) // waits for the dial to succeed
//
// A manager connects at most once. When the connection drops the manager
// stays Disconnected and every outbound call becomes a logged no-op; a new
// session needs a new Manager.
package network
