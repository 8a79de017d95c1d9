package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Request payload structure
type DonationPayload struct {
	DonorID  int64  `json:"donor_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Value    uint   `json:"value"`
}

// Test configuration
type LoadTestConfig struct {
	URL               string
	RequestsPerSecond int
	DurationSeconds   int
	ConcurrentWorkers int
}

// Stats tracking
type Stats struct {
	successCount  atomic.Int64
	errorCount    atomic.Int64
	responseTimes []float64
	mu            sync.Mutex
}

func (s *Stats) addResponseTime(duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responseTimes = append(s.responseTimes, duration)
}

func (s *Stats) getResponseTimes() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	times := make([]float64, len(s.responseTimes))
	copy(times, s.responseTimes)
	return times
}

func sendRequest(client *http.Client, config LoadTestConfig, payload []byte, stats *Stats) {
	start := time.Now()

	req, err := http.NewRequest("POST", config.URL, bytes.NewBuffer(payload))
	if err != nil {
		stats.errorCount.Add(1)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		stats.errorCount.Add(1)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	elapsed := float64(time.Since(start).Milliseconds())
	stats.addResponseTime(elapsed)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		stats.successCount.Add(1)
	} else {
		stats.errorCount.Add(1)
	}
}

func worker(client *http.Client, config LoadTestConfig, jobs <-chan []byte, stats *Stats, wg *sync.WaitGroup) {
	defer wg.Done()
	for payload := range jobs {
		sendRequest(client, config, payload, stats)
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func main() {
	config := LoadTestConfig{
		URL:               getEnv("TARGET_URL", "http://localhost:8080/api/v1/donations"),
		RequestsPerSecond: getEnvInt("RPS", 100),
		DurationSeconds:   getEnvInt("DURATION", 30),
		ConcurrentWorkers: getEnvInt("WORKERS", 20),
	}

	fmt.Printf("Load test: %s at %d rps for %ds with %d workers\n",
		config.URL, config.RequestsPerSecond, config.DurationSeconds, config.ConcurrentWorkers)

	client := &http.Client{Timeout: 10 * time.Second}
	stats := &Stats{}
	jobs := make(chan []byte, config.RequestsPerSecond)
	var wg sync.WaitGroup

	for i := 0; i < config.ConcurrentWorkers; i++ {
		wg.Add(1)
		go worker(client, config, jobs, stats, &wg)
	}

	ticker := time.NewTicker(time.Second / time.Duration(config.RequestsPerSecond))
	defer ticker.Stop()
	deadline := time.Now().Add(time.Duration(config.DurationSeconds) * time.Second)

	seq := 0
	for time.Now().Before(deadline) {
		<-ticker.C
		seq++
		payload, _ := json.Marshal(DonationPayload{
			DonorID:  2,
			Title:    fmt.Sprintf("Load test donation %d", seq),
			Category: "clothing",
			Value:    10,
		})
		jobs <- payload
	}
	close(jobs)
	wg.Wait()

	times := stats.getResponseTimes()
	sort.Float64s(times)

	total := stats.successCount.Load() + stats.errorCount.Load()
	fmt.Printf("\nTotal requests: %d\n", total)
	fmt.Printf("Success: %d, Errors: %d\n", stats.successCount.Load(), stats.errorCount.Load())
	if len(times) > 0 {
		fmt.Printf("Latency ms - p50: %.1f, p95: %.1f, p99: %.1f, max: %.1f\n",
			percentile(times, 0.50), percentile(times, 0.95), percentile(times, 0.99), times[len(times)-1])
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
