package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ChargeStatus represents the outcome of an authorization attempt
type ChargeStatus string

const (
	StatusAuthorized ChargeStatus = "AUTHORIZED"
	StatusDeclined   ChargeStatus = "DECLINED"
	StatusPending    ChargeStatus = "PENDING"
)

// AuthorizeRequest represents a charge authorization request
type AuthorizeRequest struct {
	ReferenceID string `json:"reference_id" binding:"required"`
	BuyerID     int64  `json:"buyer_id" binding:"required"`
	ListingID   int64  `json:"listing_id" binding:"required"`
	Amount      uint   `json:"amount" binding:"required"`
	Currency    string `json:"currency"`
}

// AuthorizeResponse represents the provider's answer to an authorization
type AuthorizeResponse struct {
	ReferenceID  string       `json:"reference_id"`
	Status       ChargeStatus `json:"status"`
	AuthCode     string       `json:"auth_code,omitempty"`
	ErrorCode    string       `json:"error_code,omitempty"`
	ErrorMsg     string       `json:"error_message,omitempty"`
	ProviderID   string       `json:"provider_id"`
	AuthorizedAt *time.Time   `json:"authorized_at,omitempty"`
	ProcessedAt  time.Time    `json:"processed_at"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status       string    `json:"status"`
	ProviderID   string    `json:"provider_id"`
	Timestamp    time.Time `json:"timestamp"`
	ApprovalRate float64   `json:"approval_rate"`
}

// MockProvider simulates a card payment provider
type MockProvider struct {
	approvalRate float64
	minDelay     time.Duration
	maxDelay     time.Duration
	providerID   string
	rng          *rand.Rand

	mu      sync.RWMutex
	charges map[string]*AuthorizeResponse
}

// NewMockProvider creates a new mock provider instance
func NewMockProvider(approvalRate float64, minDelay, maxDelay time.Duration) *MockProvider {
	return &MockProvider{
		approvalRate: approvalRate,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		providerID:   "MOCK_PROVIDER_" + uuid.New().String()[:8],
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		charges:      make(map[string]*AuthorizeResponse),
	}
}

// authorize simulates the charge authorization process. A reference that was
// already answered gets the same answer back, the idempotency contract every
// real provider offers.
func (m *MockProvider) authorize(req *AuthorizeRequest) *AuthorizeResponse {
	m.mu.RLock()
	if prior, ok := m.charges[req.ReferenceID]; ok {
		m.mu.RUnlock()
		log.Info().
			Str("reference_id", req.ReferenceID).
			Msg("Replaying prior authorization answer")
		return prior
	}
	m.mu.RUnlock()

	// Simulate network delay
	time.Sleep(m.randomDelay())

	response := &AuthorizeResponse{
		ReferenceID: req.ReferenceID,
		ProviderID:  m.providerID,
		ProcessedAt: time.Now(),
	}

	if m.shouldApprove() {
		now := time.Now()
		response.Status = StatusAuthorized
		response.AuthCode = uuid.New().String()[:12]
		response.AuthorizedAt = &now

		log.Info().
			Str("reference_id", req.ReferenceID).
			Int64("buyer_id", req.BuyerID).
			Uint("amount", req.Amount).
			Msg("Charge authorized")
	} else {
		response.Status = StatusDeclined
		response.ErrorCode = m.randomErrorCode()
		response.ErrorMsg = m.errorMessage(response.ErrorCode)

		log.Warn().
			Str("reference_id", req.ReferenceID).
			Int64("buyer_id", req.BuyerID).
			Str("error_code", response.ErrorCode).
			Msg("Charge declined")
	}

	m.mu.Lock()
	m.charges[req.ReferenceID] = response
	m.mu.Unlock()

	return response
}

func (m *MockProvider) lookup(referenceID string) (*AuthorizeResponse, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp, ok := m.charges[referenceID]
	return resp, ok
}

func (m *MockProvider) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	if delta <= 0 {
		return m.minDelay
	}
	randomDelta := time.Duration(m.rng.Int63n(int64(delta)))
	return m.minDelay + randomDelta
}

func (m *MockProvider) shouldApprove() bool {
	return m.rng.Float64() < m.approvalRate
}

func (m *MockProvider) randomErrorCode() string {
	errorCodes := []string{
		"INSUFFICIENT_FUNDS",
		"CARD_EXPIRED",
		"DO_NOT_HONOR",
		"SUSPECTED_FRAUD",
		"LIMIT_EXCEEDED",
	}
	return errorCodes[m.rng.Intn(len(errorCodes))]
}

func (m *MockProvider) errorMessage(code string) string {
	messages := map[string]string{
		"INSUFFICIENT_FUNDS": "The account has insufficient funds",
		"CARD_EXPIRED":       "The card on file has expired",
		"DO_NOT_HONOR":       "The issuer declined the charge",
		"SUSPECTED_FRAUD":    "The charge was flagged as fraudulent",
		"LIMIT_EXCEEDED":     "The charge exceeds the account limit",
	}

	if msg, ok := messages[code]; ok {
		return msg
	}
	return "Unknown error occurred"
}

// Handler struct holds the mock provider and routes
type Handler struct {
	provider *MockProvider
}

func NewHandler(provider *MockProvider) *Handler {
	return &Handler{provider: provider}
}

// Authorize handles charge authorization requests
func (h *Handler) Authorize(c *gin.Context) {
	var req AuthorizeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	log.Info().
		Str("reference_id", req.ReferenceID).
		Int64("buyer_id", req.BuyerID).
		Int64("listing_id", req.ListingID).
		Uint("amount", req.Amount).
		Msg("Received authorization request")

	response := h.provider.authorize(&req)

	statusCode := http.StatusOK
	if response.Status == StatusDeclined {
		statusCode = http.StatusAccepted // 202: answered, but the issuer said no
	}

	c.JSON(statusCode, response)
}

// GetCharge handles charge lookup requests
func (h *Handler) GetCharge(c *gin.Context) {
	referenceID := c.Param("reference_id")

	if referenceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "reference_id is required",
		})
		return
	}

	response, ok := h.provider.lookup(referenceID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "unknown reference_id",
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	// Simulate 5% downtime
	if h.provider.rng.Float64() < 0.05 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "Provider temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		ProviderID:   h.provider.providerID,
		Timestamp:    time.Now(),
		ApprovalRate: h.provider.approvalRate,
	})
}

// UpdateConfig allows changing provider configuration at runtime
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		ApprovalRate *float64 `json:"approval_rate"`
	}

	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if config.ApprovalRate != nil {
		if *config.ApprovalRate >= 0 && *config.ApprovalRate <= 1.0 {
			h.provider.approvalRate = *config.ApprovalRate
			log.Info().Float64("rate", *config.ApprovalRate).Msg("Updated approval rate")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Configuration updated",
		"approval_rate": h.provider.approvalRate,
	})
}

// SetupRouter configures all routes
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	// Add request logging middleware
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/payments/authorize", handler.Authorize)
		v1.GET("/payments/:reference_id", handler.GetCharge)
		v1.GET("/health", handler.HealthCheck)
		v1.PUT("/config", handler.UpdateConfig)
	}

	// Root health check
	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Get configuration from environment
	port := getEnv("PORT", "8081")
	approvalRate := getEnvFloat("APPROVAL_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 100*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 2*time.Second)

	log.Info().
		Str("port", port).
		Float64("approval_rate", approvalRate).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Msg("Starting Mock Payment Provider")

	// Create mock provider
	provider := NewMockProvider(approvalRate, minDelay, maxDelay)
	handler := NewHandler(provider)
	router := SetupRouter(handler)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
