package gateway

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestProviderMetrics_RecordSuccess(t *testing.T) {
	metrics := NewProviderMetrics()

	metrics.RecordSuccess(100)
	metrics.RecordSuccess(200)

	assert.Equal(t, int64(2), metrics.TotalRequests.Load())
	assert.Equal(t, int64(2), metrics.SuccessfulReqs.Load())
	assert.Equal(t, float64(1.0), metrics.SuccessRate())
	assert.Equal(t, int64(150), metrics.AvgLatencyMs())
}

func TestProviderMetrics_RecordFailure(t *testing.T) {
	metrics := NewProviderMetrics()

	metrics.RecordSuccess(100)
	metrics.RecordFailure()
	metrics.RecordFailure()

	assert.Equal(t, int64(3), metrics.TotalRequests.Load())
	assert.Equal(t, int64(2), metrics.FailedReqs.Load())
	assert.InDelta(t, 0.333, metrics.SuccessRate(), 0.01)
	assert.Equal(t, int32(2), metrics.ConsecutiveFails.Load())
}

func TestProviderMetrics_P95Latency(t *testing.T) {
	metrics := NewProviderMetrics()

	for i := int64(0); i < 100; i++ {
		metrics.RecordSuccess(i * 10)
	}

	p95 := metrics.P95LatencyMs()
	assert.GreaterOrEqual(t, p95, int64(900))
	assert.LessOrEqual(t, p95, int64(990))
}

func TestProvider_IsAvailable(t *testing.T) {
	provider := NewProvider("test", "http://localhost:9090", 100, &fasthttp.Client{})

	t.Run("healthy provider is available", func(t *testing.T) {
		provider.SetState(StateHealthy)
		assert.True(t, provider.IsAvailable())
	})

	t.Run("unhealthy provider is not available", func(t *testing.T) {
		provider.SetState(StateUnhealthy)
		assert.False(t, provider.IsAvailable())
	})

	t.Run("open circuit half-opens after timeout", func(t *testing.T) {
		provider.SetState(StateCircuitOpen)
		provider.circuitOpenUntil.Store(time.Now().Add(-time.Second).Unix())
		assert.True(t, provider.IsAvailable())
		assert.Equal(t, StateDegraded, provider.GetState())
	})

	t.Run("open circuit stays closed to traffic before timeout", func(t *testing.T) {
		provider.SetState(StateCircuitOpen)
		provider.circuitOpenUntil.Store(time.Now().Add(10 * time.Second).Unix())
		assert.False(t, provider.IsAvailable())
	})
}

func TestProvider_CalculateScore(t *testing.T) {
	provider := NewProvider("test", "http://localhost:9090", 100, &fasthttp.Client{})

	t.Run("unavailable provider has zero score", func(t *testing.T) {
		provider.SetState(StateUnhealthy)
		assert.Equal(t, 0.0, provider.CalculateScore())
	})

	t.Run("healthy provider with good metrics", func(t *testing.T) {
		provider.SetState(StateHealthy)
		for i := 0; i < 10; i++ {
			provider.metrics.RecordSuccess(100)
		}
		assert.Greater(t, provider.CalculateScore(), 0.0)
	})

	t.Run("consecutive failures reduce score", func(t *testing.T) {
		provider.SetState(StateHealthy)
		base := provider.CalculateScore()
		provider.metrics.ConsecutiveFails.Store(3)
		assert.Less(t, provider.CalculateScore(), base)
	})
}

func TestNewClient_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		client, err := NewClient(nil)
		assert.Error(t, err)
		assert.Nil(t, client)
	})

	t.Run("empty providers returns error", func(t *testing.T) {
		client, err := NewClient(&Config{Timeout: 5 * time.Second})
		assert.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "at least one provider is required")
	})

	t.Run("valid config creates client", func(t *testing.T) {
		client, err := NewClient(&Config{
			Providers: []ProviderConfig{
				{Name: "primary", URL: "http://localhost:9091", Weight: 100},
			},
			Timeout:                 5 * time.Second,
			MaxRetries:              3,
			RetryDelay:              time.Second,
			MaxConns:                100,
			ReadBufferSize:          4096,
			WriteBufferSize:         4096,
			HealthCheckInterval:     30 * time.Second,
			CircuitBreakerThreshold: 5,
			CircuitBreakerTimeout:   30 * time.Second,
		})
		require.NoError(t, err)
		require.NotNil(t, client)
		assert.Len(t, client.providers, 1)

		client.Close()
	})
}

func TestClient_SelectBestProvider(t *testing.T) {
	client, err := NewClient(&Config{
		Providers: []ProviderConfig{
			{Name: "primary", URL: "http://localhost:9091", Weight: 100},
			{Name: "secondary", URL: "http://localhost:9092", Weight: 80},
		},
		Timeout:                 5 * time.Second,
		MaxConns:                100,
		ReadBufferSize:          4096,
		WriteBufferSize:         4096,
		HealthCheckInterval:     30 * time.Second,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	t.Run("selects an available provider", func(t *testing.T) {
		provider, err := client.SelectBestProvider()
		require.NoError(t, err)
		assert.NotNil(t, provider)
	})

	t.Run("skips unhealthy providers", func(t *testing.T) {
		client.providers[0].SetState(StateUnhealthy)

		provider, err := client.SelectBestProvider()
		require.NoError(t, err)
		assert.Equal(t, "secondary", provider.name)

		client.providers[0].SetState(StateHealthy)
	})

	t.Run("errors when no provider is available", func(t *testing.T) {
		for _, p := range client.providers {
			p.SetState(StateUnhealthy)
		}

		provider, err := client.SelectBestProvider()
		assert.ErrorIs(t, err, ErrNoAvailableProviders)
		assert.Nil(t, provider)

		for _, p := range client.providers {
			p.SetState(StateHealthy)
		}
	})
}

func TestClient_CheckCircuitBreaker(t *testing.T) {
	client, err := NewClient(&Config{
		Providers: []ProviderConfig{
			{Name: "test", URL: "http://localhost:9091", Weight: 100},
		},
		Timeout:                 5 * time.Second,
		MaxConns:                100,
		ReadBufferSize:          4096,
		WriteBufferSize:         4096,
		HealthCheckInterval:     30 * time.Second,
		CircuitBreakerThreshold: 3,
		CircuitBreakerTimeout:   10 * time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	provider := client.providers[0]

	t.Run("opens circuit after threshold failures", func(t *testing.T) {
		provider.metrics.ConsecutiveFails.Store(3)
		client.checkCircuitBreaker(provider)

		assert.Equal(t, StateCircuitOpen, provider.GetState())
		assert.Greater(t, provider.circuitOpenUntil.Load(), time.Now().Unix())
	})

	t.Run("stays closed below threshold", func(t *testing.T) {
		provider.SetState(StateHealthy)
		provider.metrics.ConsecutiveFails.Store(2)
		client.checkCircuitBreaker(provider)

		assert.NotEqual(t, StateCircuitOpen, provider.GetState())
	})
}

func TestChargeRequest_RoundTrip(t *testing.T) {
	req := &ChargeRequest{
		ReferenceID: "purchase-42-7",
		BuyerID:     7,
		ListingID:   42,
		Amount:      1500,
		Currency:    "USD",
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var decoded ChargeRequest
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, req.ReferenceID, decoded.ReferenceID)
	assert.Equal(t, req.Amount, decoded.Amount)
}

func TestClient_Authorize_NoProviders(t *testing.T) {
	client, err := NewClient(&Config{
		Providers: []ProviderConfig{
			{Name: "down", URL: "http://localhost:9099", Weight: 100},
		},
		Timeout:                 time.Second,
		MaxRetries:              1,
		RetryDelay:              10 * time.Millisecond,
		MaxConns:                10,
		ReadBufferSize:          4096,
		WriteBufferSize:         4096,
		HealthCheckInterval:     time.Minute,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   time.Minute,
	})
	require.NoError(t, err)
	defer client.Close()

	client.providers[0].SetState(StateUnhealthy)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = client.Authorize(ctx, &ChargeRequest{ReferenceID: "ref-1", Amount: 10})
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state    ProviderState
		expected string
	}{
		{StateHealthy, "HEALTHY"},
		{StateDegraded, "DEGRADED"},
		{StateUnhealthy, "UNHEALTHY"},
		{StateCircuitOpen, "CIRCUIT_OPEN"},
		{ProviderState(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, stateString(tt.state))
		})
	}
}
