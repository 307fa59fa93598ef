package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"phone-gateway/internal/auth"
	"phone-gateway/internal/history"
	"phone-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TokenIssuer mints browser voice-client access tokens.
type TokenIssuer interface {
	VoiceAccessToken(identity string, ttl time.Duration) (string, error)
}

// Handlers groups dashboard HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth    *auth.Manager
	Limiter *auth.LoginLimiter
	History *history.Service
	Tokens  TokenIssuer

	PasswordHash   string
	ClientIdentity string
	VoiceTokenTTL  time.Duration
}

const defaultHistoryLimit = 50

// --- Auth ---

type loginRequest struct {
	Password string `json:"password"`
}

// Login exchanges the dashboard password for a JWT token pair.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	if !h.Limiter.Allow(c.Request.Context(), c.ClientIP()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := auth.CheckPassword(h.PasswordHash, req.Password); err != nil {
		logger.FromGin(c).Warn("login rejected", "ip", c.ClientIP())
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	pair, err := h.Auth.IssuePair(time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (h Handlers) Refresh(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}
	if _, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, time.Now()); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// VoiceToken mints a carrier access token so the browser client can
// register and receive calls.
func (h Handlers) VoiceToken(c *gin.Context) {
	if h.Tokens == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "carrier not configured"})
		return
	}
	ttl := h.VoiceTokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	tok, err := h.Tokens.VoiceAccessToken(h.ClientIdentity, ttl)
	if err != nil {
		logger.FromGin(c).Error("voice token", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok, "identity": h.ClientIdentity})
}

// --- History ---

func (h Handlers) ListCalls(c *gin.Context) {
	if h.History == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "history not configured"})
		return
	}
	calls, err := h.History.ListCalls(c.Request.Context(), queryLimit(c))
	if err != nil {
		logger.FromGin(c).Error("list calls", "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "carrier lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls, "summary": history.Summarize(calls)})
}

func (h Handlers) ListMessages(c *gin.Context) {
	if h.History == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "history not configured"})
		return
	}
	msgs, err := h.History.ListMessages(c.Request.Context(), queryLimit(c))
	if err != nil {
		logger.FromGin(c).Error("list messages", "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "carrier lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h Handlers) ListRecordings(c *gin.Context) {
	if h.History == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "history not configured"})
		return
	}
	recs, err := h.History.ListRecordings(c.Request.Context(), queryLimit(c))
	if err != nil {
		logger.FromGin(c).Error("list recordings", "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "carrier lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recordings": recs})
}

// --- Messaging ---

type sendMessageRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// SendMessage submits an outbound SMS from the provisioned number.
func (h Handlers) SendMessage(c *gin.Context) {
	if h.History == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "history not configured"})
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	msg, err := h.History.SendMessage(c.Request.Context(), req.To, req.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, msg)
}

func queryLimit(c *gin.Context) int {
	v := c.Query("limit")
	if v == "" {
		return defaultHistoryLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultHistoryLimit
	}
	return n
}
