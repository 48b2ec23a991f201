package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/arena-io/game/chat"
	"github.com/wricardo/arena-io/game/service"
)

// maxChatBody bounds POST /api/chat bodies.
const maxChatBody = 8 << 10

// Server represents the REST API server
type Server struct {
	service   service.LobbyService
	ws        http.Handler
	staticDir string
	router    *mux.Router
}

// NewServer creates a new API server. ws handles /ws upgrades and may be nil.
// staticDir is served at / when non-empty.
func NewServer(lobby service.LobbyService, ws http.Handler, staticDir string) *Server {
	s := &Server{
		service:   lobby,
		ws:        ws,
		staticDir: staticDir,
		router:    mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Chat
	api.HandleFunc("/chat", s.handleChatHistory).Methods("GET")
	api.HandleFunc("/chat", s.handlePostChat).Methods("POST")

	// Arena
	api.HandleFunc("/players", s.handleListPlayers).Methods("GET")
	api.HandleFunc("/arena", s.handleArenaInfo).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	// WebSocket
	if s.ws != nil {
		s.router.Handle("/ws", s.ws)
	}

	// Static files
	if s.staticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Chat Handlers

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.service.ChatHistory(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handlePostChat(w http.ResponseWriter, r *http.Request) {
	var req service.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := s.service.PostChat(r.Context(), req)
	switch {
	case errors.Is(err, chat.ErrDuplicate):
		respondJSON(w, http.StatusConflict, msg)
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMissingUsername), errors.Is(err, chat.ErrMalformed):
		respondError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
	default:
		respondJSON(w, http.StatusOK, msg)
	}
}

// Arena Handlers

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.service.ListPlayers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, players)
}

func (s *Server) handleArenaInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.ArenaInfo(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".toml")

	config, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, config)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
