// Package server is the thin HTTP layer: request validation,
// conversation CRUD routes, and SSE relay of the chat frame stream.
package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"cardsage/internal/chat"
	"cardsage/internal/history"
)

// Server wires the HTTP routes to the orchestrator and the store.
type Server struct {
	store  history.Store
	orch   *chat.Orchestrator
	engine *gin.Engine
}

// New creates the server and registers all routes.
func New(store history.Store, orch *chat.Orchestrator) *Server {
	s := &Server{
		store:  store,
		orch:   orch,
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery())

	api := s.engine.Group("/api")
	api.POST("/chat", s.handleChat)
	api.POST("/conversations", s.handleCreateConversation)
	api.GET("/conversations", s.handleListConversations)
	api.GET("/conversations/:id", s.handleGetConversation)
	api.PATCH("/conversations/:id", s.handleUpdateTitle)
	api.DELETE("/conversations/:id", s.handleDeleteConversation)

	return s
}

// Run starts the HTTP server on addr, blocking until it exits.
func (s *Server) Run(addr string) error {
	log.Printf("[server] listening on %s", addr)
	return s.engine.Run(addr)
}

// Handler exposes the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}
