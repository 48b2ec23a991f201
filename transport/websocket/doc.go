// Package websocket provides the realtime transport of the arena server.
//
// The websocket package implements:
//   - Connection upgrade and registration
//   - Decoding and routing of inbound envelopes
//   - Buffered, non-blocking outbound delivery
//   - Ping/pong keepalive and connection teardown
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub tracks all
// WebSocket connections. Each client connection is handled by a read
// goroutine and a write goroutine. Clients implement protocol.Sender, so the
// session and engine layers push messages without knowing about websockets.
//
// Message Protocol:
//
// Every frame is one JSON envelope {type, payload}:
//   - Incoming: join_game (name), input (radians), chatMessage (object)
//   - Outgoing: update, dead, chatHistory, chatMessage
//
// Unknown types and malformed frames are logged and ignored; they never
// close the connection.
//
// Usage:
//
//	hub := websocket.NewHub(sessions)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", hub.ServeWS)
//
// Connection Lifecycle:
//
// 1. Client connects and receives a uuid connection id
// 2. Connection registered with hub and opened in the session layer
// 3. Chat history sent to the new connection
// 4. Client sends join/input/chat, receives updates and chat
// 5. Read error triggers unregister and session close
//
// Concurrency:
//
// Send never blocks. A client whose buffer fills is dropped rather than
// stalling the broadcaster.
package websocket
