// Package mcp provides a Model Context Protocol front end for the arena server.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions that proxy the REST API
//   - Stdio and HTTP transport modes
//
// MCP Tools:
//   - chat_history: Read the lobby chat with an optional limit
//   - send_chat_message: Post to the lobby chat with a fresh idempotency id
//   - list_players: Connections, positions and scores
//   - arena_info: Rules of the running arena
//   - list_configs: Available arena configurations
//
// Agents never join the arena as ships. They observe it and chat.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// Stdio mode
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode
//	response := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
