package main

import (
	"time"

	"phone-gateway/internal/auth"
	"phone-gateway/internal/config"
	"phone-gateway/internal/history"
	"phone-gateway/internal/httpapi"
	"phone-gateway/internal/routing"
	"phone-gateway/internal/status"
	"phone-gateway/internal/telephony"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type appDeps struct {
	cfg         config.Config
	auth        *auth.Manager
	limiter     *auth.LoginLimiter
	engine      *routing.Engine
	aggregator  *status.Aggregator
	notifier    status.Notifier
	carrier     *telephony.CarrierClient
	history     *history.Service
	webhookAuth telephony.WebhookAuthenticator
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps appDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	wh := telephony.WebhookHandlers{
		Engine:     deps.engine,
		Aggregator: deps.aggregator,
		Notifier:   deps.notifier,
	}

	// Carrier webhooks. Signature validation gates everything below.
	sigMW := telephony.RequireSignature(deps.webhookAuth)

	r.POST(routing.PathVoiceApp, sigMW, wh.VoiceApp)
	r.POST(routing.PathDialClient, sigMW, wh.DialClient)
	r.POST(routing.PathDialResult, sigMW, wh.DialResult)
	r.POST(routing.PathCallTimeout, sigMW, wh.CallTimeout)
	r.POST(routing.PathDialStatus, sigMW, wh.DialStatus)
	r.POST(routing.PathCallStatus, sigMW, wh.CallStatus)
	r.POST(routing.PathRecording, sigMW, wh.Recording)

	r.POST("/sms/incoming", sigMW, wh.IncomingMessage)
	r.POST("/sms/status", sigMW, wh.MessageStatus)

	// Dashboard API.
	h := httpapi.Handlers{
		Auth:           deps.auth,
		Limiter:        deps.limiter,
		History:        deps.history,
		Tokens:         deps.carrier,
		PasswordHash:   deps.cfg.Dashboard.PasswordHash,
		ClientIdentity: deps.cfg.Gateway.ClientIdentity,
		VoiceTokenTTL:  time.Hour,
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	api := r.Group("/api")
	{
		api.POST("/login", h.Login)
		api.POST("/refresh", h.Refresh)

		protected := api.Group("", auth.RequireAccessToken(deps.auth))
		{
			protected.GET("/voice-token", h.VoiceToken)
			protected.GET("/calls", h.ListCalls)
			protected.GET("/messages", h.ListMessages)
			protected.GET("/recordings", h.ListRecordings)
			protected.POST("/messages/send", h.SendMessage)
		}
	}
}
