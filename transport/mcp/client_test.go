package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wricardo/arena-io/game/chat"
	"github.com/wricardo/arena-io/game/engine"
	"github.com/wricardo/arena-io/game/service"
)

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]string
	if err := client.apiCall(context.Background(), "GET", "/api/health", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("Unexpected response %v", response)
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		client := NewClient("http://invalid-url-that-does-not-exist:9999")
		if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
			t.Error("Expected error for invalid URL")
		}
	})

	t.Run("error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "chat message is empty"})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || err.Error() != "chat message is empty" {
			t.Errorf("Expected API error message, got %v", err)
		}
	})

	t.Run("bare status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "API error") {
			t.Errorf("Expected 'API error', got %v", err)
		}
	})
}

func TestClient_chatHistory(t *testing.T) {
	at := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" || r.URL.Path != "/api/chat" {
			t.Errorf("Expected GET /api/chat, got %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode([]chat.Message{
			{ID: "1", Username: "alice", Text: "first", SentAt: at},
			{ID: "2", Username: "bob", Text: "second", SentAt: at},
			{ID: "3", Username: "carol", Text: "third", SentAt: at},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleChatHistory(context.Background(), callRequest("chat_history", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleChatHistory failed: %v", err)
	}
	text := resultText(t, result)
	for _, want := range []string{"3 messages", "[15:04:05] alice: first", "carol: third"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in %s", want, text)
		}
	}

	result, _ = client.handleChatHistory(context.Background(), callRequest("chat_history", map[string]interface{}{"limit": float64(1)}))
	text = resultText(t, result)
	if strings.Contains(text, "alice") || !strings.Contains(text, "carol") {
		t.Errorf("Expected only the latest message, got %s", text)
	}
}

func TestClient_sendChat(t *testing.T) {
	var got service.ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/chat" {
			t.Errorf("Expected POST /api/chat, got %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(chat.Message{ID: got.ID, Username: got.Username, Text: got.Message, SentAt: time.Now()})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleSendChat(context.Background(), callRequest("send_chat_message", map[string]interface{}{
		"username": "agent",
		"message":  "gg",
	}))
	if err != nil {
		t.Fatalf("handleSendChat failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("Unexpected tool error: %s", resultText(t, result))
	}
	if got.ID == "" {
		t.Error("Expected an idempotency id on the request")
	}
	if got.Username != "agent" || got.Message != "gg" {
		t.Errorf("Unexpected request %+v", got)
	}
	if text := resultText(t, result); !strings.Contains(text, "agent: gg") {
		t.Errorf("Expected echo of the message, got %s", text)
	}

	t.Run("missing message", func(t *testing.T) {
		result, _ := client.handleSendChat(context.Background(), callRequest("send_chat_message", map[string]interface{}{
			"username": "agent",
		}))
		if !result.IsError {
			t.Error("Expected a tool error")
		}
	})
}

func TestClient_listPlayers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]service.PlayerInfo{
			{ID: "c1", Username: "alice", InGame: true, X: 10, Y: 20, HP: 90, Score: 12},
			{ID: "c2"},
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleListPlayers(context.Background(), callRequest("list_players", nil))
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, result)
	for _, want := range []string{"Connections (2)", "alice at (10,20) HP: 90 Score: 12", "(lobby) not playing"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in %s", want, text)
		}
	}
}

func TestClient_arenaInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(service.ArenaInfo{
			Config:      engine.DefaultArenaConfig(),
			Connections: 3,
			Players:     2,
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleArenaInfo(context.Background(), callRequest("arena_info", nil))
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, result)
	for _, want := range []string{"Map: 3000x3000", "Tick rate: 60 Hz", "Connections: 3, Players: 2"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in %s", want, text)
		}
	}
}

func TestClient_listConfigs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]service.ConfigInfo{
			{ConfigID: "duel", Name: "Duel", Description: "Small map", MapSize: 800, TickRate: 30},
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleListConfigs(context.Background(), callRequest("list_configs", nil))
	if err != nil {
		t.Fatal(err)
	}
	if text := resultText(t, result); !strings.Contains(text, "Duel (duel)") || !strings.Contains(text, "Map: 800") {
		t.Errorf("Unexpected configs output %s", text)
	}
}

func TestClient_toolErrorOnAPIFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleListPlayers(context.Background(), callRequest("list_players", nil))
	if err != nil {
		t.Fatalf("Tool errors are reported in the result, got %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "boom") {
		t.Error("Expected an error result carrying the API message")
	}
}

func TestFormatChatHistory_Empty(t *testing.T) {
	if got := formatChatHistory(nil); got != "No chat messages yet." {
		t.Errorf("Unexpected output %q", got)
	}
}
