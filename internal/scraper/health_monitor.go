package scraper

import (
	"net/url"
	"strings"
	"sync"
	"time"
)

// HealthMonitor tracks homepage fetch outcomes during a catalog build
type HealthMonitor struct {
	mu                   sync.RWMutex
	totalRequests        int64
	successfulRequests   int64
	failedRequests       int64
	consecutiveFailures  int64
	lastFailureTime      time.Time
	lastSuccessTime      time.Time
	recentFailures       []FailureRecord
	maxRecentFailures    int
	failureThreshold     float64 // failure ratio above which the run is unhealthy
	consecutiveThreshold int64
}

// FailureRecord represents a single failed fetch
type FailureRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Host      string    `json:"host"`
	Error     string    `json:"error"`
	URL       string    `json:"url,omitempty"`
}

// HealthStatus summarizes fetch health
type HealthStatus struct {
	IsHealthy           bool            `json:"is_healthy"`
	TotalRequests       int64           `json:"total_requests"`
	SuccessfulRequests  int64           `json:"successful_requests"`
	FailedRequests      int64           `json:"failed_requests"`
	SuccessRate         float64         `json:"success_rate"`
	ConsecutiveFailures int64           `json:"consecutive_failures"`
	LastFailureTime     *time.Time      `json:"last_failure_time,omitempty"`
	LastSuccessTime     *time.Time      `json:"last_success_time,omitempty"`
	RecentFailures      []FailureRecord `json:"recent_failures"`
	HealthIssues        []string        `json:"health_issues"`
	RecommendedActions  []string        `json:"recommended_actions"`
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{
		maxRecentFailures:    50,
		failureThreshold:     0.5, // directory homepages fail often; only flag when most do
		consecutiveThreshold: 10,
		recentFailures:       make([]FailureRecord, 0, 50),
	}
}

// RecordSuccess records a successful fetch
func (h *HealthMonitor) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalRequests++
	h.successfulRequests++
	h.consecutiveFailures = 0
	h.lastSuccessTime = time.Now()
}

// RecordFailure records a failed fetch of rawURL
func (h *HealthMonitor) RecordFailure(rawURL string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalRequests++
	h.failedRequests++
	h.consecutiveFailures++
	h.lastFailureTime = time.Now()

	failure := FailureRecord{
		Timestamp: h.lastFailureTime,
		Host:      hostOf(rawURL),
		Error:     err.Error(),
		URL:       rawURL,
	}

	h.recentFailures = append(h.recentFailures, failure)
	if len(h.recentFailures) > h.maxRecentFailures {
		h.recentFailures = h.recentFailures[1:]
	}
}

// GetHealthStatus returns the current health status
func (h *HealthMonitor) GetHealthStatus() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		TotalRequests:       h.totalRequests,
		SuccessfulRequests:  h.successfulRequests,
		FailedRequests:      h.failedRequests,
		ConsecutiveFailures: h.consecutiveFailures,
		RecentFailures:      make([]FailureRecord, len(h.recentFailures)),
		HealthIssues:        []string{},
		RecommendedActions:  []string{},
		IsHealthy:           true,
		SuccessRate:         1.0,
	}
	copy(status.RecentFailures, h.recentFailures)

	if h.totalRequests > 0 {
		status.SuccessRate = float64(h.successfulRequests) / float64(h.totalRequests)
	}
	if !h.lastFailureTime.IsZero() {
		t := h.lastFailureTime
		status.LastFailureTime = &t
	}
	if !h.lastSuccessTime.IsZero() {
		t := h.lastSuccessTime
		status.LastSuccessTime = &t
	}

	if h.totalRequests >= 10 && status.SuccessRate < (1.0-h.failureThreshold) {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues, "High failure rate detected")
		status.RecommendedActions = append(status.RecommendedActions,
			"Check outbound connectivity or run the build without --enrich")
	}

	if h.consecutiveFailures >= h.consecutiveThreshold {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues, "Multiple consecutive failures detected")
		status.RecommendedActions = append(status.RecommendedActions,
			"Lower --rps; directory sites may be blocking the crawler")
	}

	h.analyzeFailurePatterns(&status)

	return status
}

// analyzeFailurePatterns reports an error class behind most recent failures
func (h *HealthMonitor) analyzeFailurePatterns(status *HealthStatus) {
	if len(h.recentFailures) < 3 {
		return
	}

	errorCounts := make(map[string]int)
	for _, failure := range h.recentFailures {
		errorCounts[categorizeError(failure.Error)]++
	}

	total := len(h.recentFailures)
	for _, errorType := range []string{"timeout", "rate_limit", "blocked", "network"} {
		if float64(errorCounts[errorType])/float64(total) <= 0.5 {
			continue
		}
		switch errorType {
		case "timeout":
			status.HealthIssues = append(status.HealthIssues, "Frequent timeout errors detected")
			status.RecommendedActions = append(status.RecommendedActions,
				"Reduce --concurrency so slow hosts are not starved")
		case "rate_limit":
			status.HealthIssues = append(status.HealthIssues, "Rate limiting detected")
			status.RecommendedActions = append(status.RecommendedActions, "Lower --rps")
		case "blocked":
			status.HealthIssues = append(status.HealthIssues, "Requests are being refused")
			status.RecommendedActions = append(status.RecommendedActions,
				"Check the crawler User-Agent is accepted")
		case "network":
			status.HealthIssues = append(status.HealthIssues, "Network connectivity issues detected")
			status.RecommendedActions = append(status.RecommendedActions,
				"Check network connectivity and DNS resolution")
		}
	}
}

// categorizeError categorizes an error message into a type
func categorizeError(errorMsg string) string {
	errorMsg = strings.ToLower(errorMsg)

	switch {
	case strings.Contains(errorMsg, "timeout") || strings.Contains(errorMsg, "deadline"):
		return "timeout"
	case strings.Contains(errorMsg, "rate limit") || strings.Contains(errorMsg, "429"):
		return "rate_limit"
	case strings.Contains(errorMsg, "unauthorized") || strings.Contains(errorMsg, "401") || strings.Contains(errorMsg, "403"):
		return "blocked"
	case strings.Contains(errorMsg, "network") || strings.Contains(errorMsg, "connection") || strings.Contains(errorMsg, "dns") || strings.Contains(errorMsg, "no such host"):
		return "network"
	}
	return "other"
}

// IsHealthy returns true if fetches are within healthy parameters
func (h *HealthMonitor) IsHealthy() bool {
	return h.GetHealthStatus().IsHealthy
}

// GetFailureRate returns the failure ratio
func (h *HealthMonitor) GetFailureRate() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.totalRequests == 0 {
		return 0.0
	}
	return float64(h.failedRequests) / float64(h.totalRequests)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Host, "www.")
}
