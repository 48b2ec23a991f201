// Package api provides HTTP REST API handlers for the arena server.
//
// The api package implements:
//   - Chat history reads and chat posts
//   - Player and arena summaries
//   - Configuration listing
//   - WebSocket upgrade routing
//   - Static file serving for the browser bundle
//
// Endpoints:
//
// Chat:
//   - GET /api/chat - Stored messages, oldest first
//   - POST /api/chat - Post {username, message, id?}
//
// Arena:
//   - GET /api/players - Open connections and their players
//   - GET /api/arena - Arena rules and counts
//   - GET /api/health - Liveness check
//
// Configuration:
//   - GET /api/configs - List available configurations
//   - GET /api/configs/{name} - Get one configuration
//
// Realtime:
//   - GET /ws - WebSocket upgrade, see the websocket package
//
// Usage:
//
//	server := api.NewServer(lobby, http.HandlerFunc(hub.ServeWS), "static")
//	http.ListenAndServe(":8080", server)
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status code:
//
//	{"error": "chat message is empty"}
//
// POST /api/chat answers 400 for validation errors and 409 with the stored
// message when the id was already posted.
package api
