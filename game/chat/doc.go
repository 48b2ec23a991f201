// Package chat implements the arena chat channel that runs alongside
// gameplay messages.
//
// The package provides:
//   - Message and Submission types shared by server and clients
//   - Validation and normalization of inbound submissions
//   - History, a bounded FIFO buffer (oldest entries evicted first)
//   - Room, the server's authoritative history plus its broadcast fan-out
//
// Capacity and Length:
//
// History keeps at most HistoryCapacity messages on both ends of the wire.
// The server truncates every stored message to MaxMessageLength characters.
// Malformed submissions are dropped and never reach history or broadcast.
//
// Concurrency:
//
// Room serializes every submission. Parsing, the idempotency check, the
// append with its eviction and the broadcast happen inside one critical
// section, so concurrent writers on different connections can never
// interleave ordering or exceed the capacity. A viewer attaching to the room
// receives a history snapshot taken under the same lock, so the snapshot and
// the live stream it joins never overlap or leave a gap.
//
// Usage:
//
//	room := chat.NewRoom(chat.HistoryCapacity, broadcaster)
//	msg, err := room.Submit(raw)
//	if err != nil {
//		// malformed or duplicate, already logged
//	}
package chat
