package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// scrape returns the text exposition of the default registry.
func scrape(t *testing.T) string {
	t.Helper()

	server := httptest.NewServer(promhttp.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("Failed to get metrics: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.Errorf("failed to close response body: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return string(body)
}

func TestMetricsEndpoint(t *testing.T) {
	// Vector metrics only appear once a label set has been used
	RecordLogoResolution("init", time.Millisecond)
	RecordLogoBackendError("init", "init")
	SetCircuitBreakerState("init", "CLOSED")
	RecordCircuitBreakerTrip("init")
	SetCatalogChannels(0)
	RecordCatalogSyncFailure()
	RecordHealthCheckFailure()

	output := scrape(t)

	expectedMetrics := []string{
		"tvchannels_logo_resolutions_total",
		"tvchannels_logo_resolve_duration_seconds",
		"tvchannels_logo_backend_errors_total",
		"tvchannels_circuit_breaker_state",
		"tvchannels_circuit_breaker_trips_total",
		"tvchannels_catalog_channels",
		"tvchannels_catalog_sync_failures_total",
		"tvchannels_health_check_failures_total",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(output, metric) {
			t.Errorf("Expected metric %s not found in output", metric)
		}
	}
}

func TestMetricsValues(t *testing.T) {
	SetCatalogChannels(42)
	RecordLogoResolution("bundled", 2*time.Millisecond)
	RecordLogoBackendError("mirakurun", "timeout")

	output := scrape(t)

	tests := []struct {
		name     string
		contains string
	}{
		{"catalog_channels", "tvchannels_catalog_channels 42"},
		{"resolutions", `tvchannels_logo_resolutions_total{source="bundled"}`},
		{"backend_errors", `tvchannels_logo_backend_errors_total{backend="mirakurun",reason="timeout"}`},
		{"histogram", "tvchannels_logo_resolve_duration_seconds_bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected to find %s in output", tt.contains)
			}
		})
	}
}

func TestCircuitBreakerStateValues(t *testing.T) {
	tests := []struct {
		state string
		value string
	}{
		{"CLOSED", "0"},
		{"OPEN", "1"},
		{"HALF-OPEN", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			SetCircuitBreakerState("test-cb", tt.state)

			expectedLine := `tvchannels_circuit_breaker_state{backend="test-cb"} ` + tt.value
			if output := scrape(t); !strings.Contains(output, expectedLine) {
				t.Errorf("Expected to find %s in output for state %s", expectedLine, tt.state)
			}
		})
	}
}
