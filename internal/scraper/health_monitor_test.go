package scraper

import (
	"errors"
	"testing"
)

func TestHealthMonitor_RecordSuccessAndFailure(t *testing.T) {
	monitor := NewHealthMonitor()

	// Initially healthy
	if !monitor.IsHealthy() {
		t.Error("Expected new monitor to be healthy")
	}

	monitor.RecordSuccess()
	monitor.RecordSuccess()
	monitor.RecordSuccess()

	status := monitor.GetHealthStatus()
	if status.TotalRequests != 3 {
		t.Errorf("Expected 3 total requests, got %d", status.TotalRequests)
	}
	if status.SuccessRate != 1.0 {
		t.Errorf("Expected 100%% success rate, got %.2f", status.SuccessRate)
	}

	monitor.RecordFailure("https://www.cylex.es/", errors.New("network error"))

	status = monitor.GetHealthStatus()
	if status.FailedRequests != 1 {
		t.Errorf("Expected 1 failed request, got %d", status.FailedRequests)
	}
	if status.SuccessRate != 0.75 {
		t.Errorf("Expected 75%% success rate, got %.2f", status.SuccessRate)
	}
	if len(status.RecentFailures) != 1 {
		t.Fatalf("Expected 1 recent failure, got %d", len(status.RecentFailures))
	}
	if status.RecentFailures[0].Host != "cylex.es" {
		t.Errorf("Expected host cylex.es, got %q", status.RecentFailures[0].Host)
	}
}

func TestHealthMonitor_ConsecutiveFailures(t *testing.T) {
	monitor := NewHealthMonitor()

	for i := 0; i < 10; i++ {
		monitor.RecordFailure("https://example.com", errors.New("error"))
	}

	status := monitor.GetHealthStatus()
	if status.IsHealthy {
		t.Error("Expected monitor to be unhealthy after consecutive failures")
	}
	if !contains(status.HealthIssues, "Multiple consecutive failures detected") {
		t.Error("Expected consecutive failure health issue")
	}

	// A success resets the streak
	monitor.RecordSuccess()
	if got := monitor.GetHealthStatus().ConsecutiveFailures; got != 0 {
		t.Errorf("Expected consecutive failures to reset, got %d", got)
	}
}

func TestHealthMonitor_HighFailureRate(t *testing.T) {
	monitor := NewHealthMonitor()

	for i := 0; i < 4; i++ {
		monitor.RecordSuccess()
		monitor.RecordFailure("https://example.com", errors.New("error"))
		monitor.RecordFailure("https://example.com", errors.New("error"))
	}

	status := monitor.GetHealthStatus()
	if status.IsHealthy {
		t.Error("Expected monitor to be unhealthy due to high failure rate")
	}
	if !contains(status.HealthIssues, "High failure rate detected") {
		t.Error("Expected high failure rate health issue")
	}
	if contains(status.HealthIssues, "Multiple consecutive failures detected") {
		t.Error("Did not expect consecutive failure issue")
	}
}

func TestHealthMonitor_FailurePatternAnalysis(t *testing.T) {
	monitor := NewHealthMonitor()

	for i := 0; i < 4; i++ {
		monitor.RecordFailure("https://example.com", errors.New("unexpected status code: 429"))
	}

	status := monitor.GetHealthStatus()
	if !contains(status.HealthIssues, "Rate limiting detected") {
		t.Error("Expected rate limit pattern to be detected")
	}
	if !contains(status.RecommendedActions, "Lower --rps") {
		t.Error("Expected rate-limit recommended action")
	}
}

func TestHealthMonitor_RecentFailuresLimit(t *testing.T) {
	monitor := NewHealthMonitor()

	for i := 0; i < 60; i++ {
		monitor.RecordFailure("https://example.com", errors.New("error"))
	}

	status := monitor.GetHealthStatus()
	if len(status.RecentFailures) != monitor.maxRecentFailures {
		t.Errorf("Expected recent failures to be limited to %d, got %d",
			monitor.maxRecentFailures, len(status.RecentFailures))
	}
}

func TestHealthMonitor_FailureRateCalculation(t *testing.T) {
	monitor := NewHealthMonitor()

	monitor.RecordSuccess()
	monitor.RecordSuccess()
	monitor.RecordFailure("https://example.com", errors.New("error"))
	monitor.RecordFailure("https://example.com", errors.New("error"))

	if rate := monitor.GetFailureRate(); rate != 0.5 {
		t.Errorf("Expected failure rate 0.50, got %.2f", rate)
	}
}

func TestCategorizeError(t *testing.T) {
	testCases := []struct {
		error    string
		expected string
	}{
		{"connection timeout", "timeout"},
		{"context deadline exceeded", "timeout"},
		{"rate limit exceeded", "rate_limit"},
		{"unexpected status code: 429", "rate_limit"},
		{"unauthorized access", "blocked"},
		{"unexpected status code: 403", "blocked"},
		{"network unreachable", "network"},
		{"DNS resolution failed", "network"},
		{"dial tcp: lookup nope.invalid: no such host", "network"},
		{"connection refused", "network"},
		{"unknown error", "other"},
	}

	for _, tc := range testCases {
		if result := categorizeError(tc.error); result != tc.expected {
			t.Errorf("categorizeError(%q) = %q, expected %q", tc.error, result, tc.expected)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
