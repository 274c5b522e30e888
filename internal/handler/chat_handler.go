package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/brandbot/internal/model"
	"github.com/xxxsen/brandbot/internal/pkg/errcode"
	"github.com/xxxsen/brandbot/internal/pkg/response"
	"github.com/xxxsen/brandbot/internal/service"
)

type ChatAPI interface {
	Chat(ctx context.Context, req service.ChatRequest) (*service.ChatResponse, error)
	Search(ctx context.Context, query, rawBrand string, k int) ([]model.ScoredDocument, error)
	Stats() service.Stats
	ResetHistory(ctx context.Context, userID string) error
}

type ChatHandler struct {
	chat ChatAPI
}

func NewChatHandler(chat ChatAPI) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Brand  string `json:"brand"`
	Name   string `json:"name"`
	Query  string `json:"query" binding:"required"`
	K      int    `json:"k"`
}

type searchRequest struct {
	Query string `json:"query" binding:"required"`
	Brand string `json:"brand"`
	K     int    `json:"k"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	resp, err := h.chat.Chat(c.Request.Context(), service.ChatRequest{
		UserID:   req.UserID,
		Brand:    req.Brand,
		UserName: req.Name,
		Query:    req.Query,
		K:        req.K,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

func (h *ChatHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.K < 0 || req.K > 50 {
		response.Error(c, errcode.ErrInvalid, "k out of range")
		return
	}
	docs, err := h.chat.Search(c.Request.Context(), req.Query, req.Brand, req.K)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs})
}

func (h *ChatHandler) Stats(c *gin.Context) {
	response.Success(c, h.chat.Stats())
}

func (h *ChatHandler) ResetHistory(c *gin.Context) {
	if err := h.chat.ResetHistory(c.Request.Context(), c.Param("user_id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"user_id": c.Param("user_id")})
}
