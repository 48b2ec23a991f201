// Package session tracks the server side of every arena connection.
//
// The session package implements:
//   - Registration of connections as they open
//   - Routing of join, input and chat events to their collaborators
//   - Chat fan-out to every open connection
//   - Teardown when a connection drops
//
// Core Types:
//
// Manager owns the table of open connections. Each connection is a
// protocol.Sender supplied by the transport layer. Simulation is the
// game-state collaborator that owns player entities; the Manager only
// forwards events to it.
//
// Chat:
//
// Manager implements chat.Broadcaster so the chat room can deliver stored
// messages through it. A connection receives the chat history once, when it
// opens, and every broadcast after that. The room lock is always taken
// before the session lock.
//
// Concurrency:
//
// The manager is thread-safe. Events for different connections may arrive
// on different goroutines. The simulation is never called while the session
// lock is held.
//
// Usage:
//
//	room := chat.NewRoom(chat.HistoryCapacity, nil)
//	manager := session.NewManager(arena, room)
//	room.SetBroadcaster(manager)
//
//	if err := manager.Open(conn); err != nil {
//		return err
//	}
//	defer manager.Close(conn.ID())
package session
