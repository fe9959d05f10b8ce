package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"solana_wallet_dashboard/pkg/middleware"
	"solana_wallet_dashboard/pkg/service"
)

type Handler struct {
	service        *service.Service
	allowedOrigins []string
}

func NewHandler(service *service.Service, allowedOrigins []string) *Handler {
	return &Handler{
		service:        service,
		allowedOrigins: allowedOrigins,
	}
}

func (h *Handler) InitRoute() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID())

	if len(h.allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  h.allowedOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", middleware.RequestIDHeader},
			ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		}))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.service.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.service.Metrics.Handler()))
	}

	api := router.Group("/api")
	{
		wallet := api.Group("/wallet")
		{
			wallet.GET("", h.GetWallet)
			wallet.POST("/connect", h.Connect)
			wallet.POST("/disconnect", h.Disconnect)
			wallet.POST("/visibility", h.SetVisibility)

			connected := wallet.Group("", middleware.RequireWallet(h.service.Session))
			connected.GET("/holdings", h.GetHoldings)
			connected.POST("/refresh", h.Refresh)
		}

		transfer := api.Group("/transfer")
		{
			transfer.GET("", h.GetTransfer)
			transfer.POST("", middleware.RequireWallet(h.service.Session), h.Submit)
			transfer.POST("/reset", h.ResetTransfer)
			transfer.POST("/approve", h.Approve)
			transfer.POST("/decline", h.Decline)
		}
	}
	return router
}
