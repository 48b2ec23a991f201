package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/segmentio/ksuid"
	"github.com/wricardo/arena-io/game/chat"
	"github.com/wricardo/arena-io/game/engine"
	"github.com/wricardo/arena-io/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Arena",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Arena - MCP Interface

This is a thin client that proxies all requests to the arena REST API.

Players steer ships in a shared arena, shoot each other and chat in the lobby.
Agents cannot steer ships; they can watch the arena and take part in chat.

AVAILABLE TOOLS:
- chat_history: Read the lobby chat, oldest first
- send_chat_message: Post a message to the lobby chat
- list_players: Connections, positions, hp and scores
- arena_info: Rules of the running arena
- list_configs: Available arena configurations`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Chat
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "chat_history",
		Description: "Read the lobby chat history, oldest message first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Only return the most recent N messages (optional)",
				},
			},
		},
	}, c.handleChatHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "send_chat_message",
		Description: "Post a message to the lobby chat. Messages longer than 100 characters are truncated.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"username": map[string]interface{}{
					"type":        "string",
					"description": "Name shown next to the message",
				},
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Message text",
				},
			},
			Required: []string{"username", "message"},
		},
	}, c.handleSendChat)

	// Arena
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_players",
		Description: "List open connections with their position, hp and score",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPlayers)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "arena_info",
		Description: "Get the rules and counters of the running arena",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleArenaInfo)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available arena configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleChatHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 0)

	var history []chat.Message
	if err := c.apiCall(ctx, "GET", "/api/chat", nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	return mcp.NewToolResultText(formatChatHistory(history)), nil
}

func (c *Client) handleSendChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	username, err := request.RequireString("username")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := service.ChatRequest{
		ID:       ksuid.New().String(),
		Username: username,
		Message:  message,
	}

	var msg chat.Message
	if err := c.apiCall(ctx, "POST", "/api/chat", body, &msg); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Sent (%s)\n%s", msg.ID, formatChatLine(msg))), nil
}

func (c *Client) handleListPlayers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var players []service.PlayerInfo
	if err := c.apiCall(ctx, "GET", "/api/players", nil, &players); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPlayers(players)), nil
}

func (c *Client) handleArenaInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var info service.ArenaInfo
	if err := c.apiCall(ctx, "GET", "/api/arena", nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatArenaInfo(&info)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Configurations:\n\n"
	for _, config := range configs {
		result += fmt.Sprintf("• %s (%s)\n  %s\n  Map: %.0f, Tick rate: %d Hz\n\n",
			config.Name, config.ConfigID, config.Description, config.MapSize, config.TickRate)
	}

	return mcp.NewToolResultText(result), nil
}

// Formatting

func formatChatLine(msg chat.Message) string {
	return fmt.Sprintf("[%s] %s: %s", msg.SentAt.Format("15:04:05"), msg.Username, msg.Text)
}

func formatChatHistory(history []chat.Message) string {
	if len(history) == 0 {
		return "No chat messages yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Chat (%d messages):\n\n", len(history))
	for _, msg := range history {
		b.WriteString(formatChatLine(msg))
		b.WriteString("\n")
	}
	return b.String()
}

func formatPlayers(players []service.PlayerInfo) string {
	if len(players) == 0 {
		return "Nobody is connected."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Connections (%d):\n\n", len(players))
	for _, p := range players {
		name := p.Username
		if name == "" {
			name = "(lobby)"
		}
		if p.InGame {
			fmt.Fprintf(&b, "- %s at (%.0f,%.0f) HP: %.0f Score: %d\n", name, p.X, p.Y, p.HP, p.Score)
		} else {
			fmt.Fprintf(&b, "- %s not playing\n", name)
		}
	}
	return b.String()
}

func formatArenaInfo(info *service.ArenaInfo) string {
	var b strings.Builder
	cfg := info.Config
	if cfg == nil {
		cfg = engine.DefaultArenaConfig()
	}

	fmt.Fprintf(&b, "Arena: %s\n", cfg.Name)
	if cfg.Description != "" {
		fmt.Fprintf(&b, "%s\n", cfg.Description)
	}
	fmt.Fprintf(&b, "Map: %.0fx%.0f, Tick rate: %d Hz\n", cfg.MapSize, cfg.MapSize, cfg.TickRate)
	fmt.Fprintf(&b, "Ships: radius %.0f, hp %.0f, speed %.0f, fire cooldown %.2fs\n",
		cfg.PlayerRadius, cfg.PlayerMaxHP, cfg.PlayerSpeed, cfg.PlayerFireCooldown)
	fmt.Fprintf(&b, "Bullets: radius %.0f, speed %.0f, damage %.0f\n",
		cfg.BulletRadius, cfg.BulletSpeed, cfg.BulletDamage)
	fmt.Fprintf(&b, "Connections: %d, Players: %d, Chat messages: %d\n",
		info.Connections, info.Players, info.ChatMessages)
	if !info.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Running since %s\n", info.StartedAt.Format(time.RFC3339))
	}
	return b.String()
}
