package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cardsage/internal/history"
	"cardsage/internal/stream"
)

// maxMessageLen caps inbound message size before the pipeline runs.
const maxMessageLen = 8000

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
	Strategy       string `json:"strategy"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message must not be empty"})
		return
	}
	if len(req.Message) > maxMessageLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message too long"})
		return
	}

	ctx := c.Request.Context()

	conversationID := req.ConversationID
	if conversationID == "" {
		conv, err := s.store.CreateConversation(ctx, "", nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
			return
		}
		conversationID = conv.ID
	} else if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, history.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "conversation not found"})
		return
	}

	frames, err := s.orch.ProcessMessage(ctx, conversationID, req.Message, req.Strategy)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process message"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Conversation-Id", conversationID)
	c.Status(http.StatusOK)

	for f := range frames {
		c.Writer.WriteString(stream.Encode(f))
		c.Writer.Flush()
	}
}

type createConversationRequest struct {
	Title    string            `json:"title"`
	Metadata map[string]string `json:"metadata"`
}

func (s *Server) handleCreateConversation(c *gin.Context) {
	var req createConversationRequest
	// An empty body is fine: conversations may start untitled.
	_ = c.ShouldBindJSON(&req)

	conv, err := s.store.CreateConversation(c.Request.Context(), req.Title, req.Metadata)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (s *Server) handleListConversations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	convs, err := s.store.ListConversations(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list conversations"})
		return
	}
	if convs == nil {
		convs = []history.Conversation{}
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs, "limit": limit, "offset": offset})
}

func (s *Server) handleGetConversation(c *gin.Context) {
	id := c.Param("id")

	conv, err := s.store.GetConversation(c.Request.Context(), id)
	if err != nil {
		s.notFoundOr500(c, err)
		return
	}

	msgs, err := s.store.Messages(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load messages"})
		return
	}
	if msgs == nil {
		msgs = []history.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv, "messages": msgs})
}

type updateTitleRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleUpdateTitle(c *gin.Context) {
	var req updateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title must not be empty"})
		return
	}

	if err := s.store.UpdateTitle(c.Request.Context(), c.Param("id"), req.Title); err != nil {
		s.notFoundOr500(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDeleteConversation(c *gin.Context) {
	if err := s.store.DeleteConversation(c.Request.Context(), c.Param("id")); err != nil {
		s.notFoundOr500(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) notFoundOr500(c *gin.Context, err error) {
	if errors.Is(err, history.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
