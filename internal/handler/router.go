package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/brandbot/internal/middleware"
)

type RouterDeps struct {
	Chat          *ChatHandler
	ChatRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/chat", middleware.RateLimit(deps.ChatRateLimit), deps.Chat.Chat)
	api.POST("/search", deps.Chat.Search)
	api.GET("/index/stats", deps.Chat.Stats)
	api.DELETE("/history/:user_id", deps.Chat.ResetHistory)
}
