package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitIdempotent(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if monitorChecksTotal == nil || monitorFetchesTotal == nil ||
		monitorNotificationsTotal == nil || httpRequestsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObserveHelpers(t *testing.T) {
	Init()

	ObserveCheck("clear", 50*time.Millisecond)
	if val := testutil.ToFloat64(monitorChecksTotal.WithLabelValues("clear")); val != 1 {
		t.Errorf("Expected monitor_checks_total{outcome=clear} to be 1, got %f", val)
	}

	ObserveFetch(200, 20*time.Millisecond)
	if val := testutil.ToFloat64(monitorFetchesTotal.WithLabelValues("200")); val != 1 {
		t.Errorf("Expected monitor_fetches_total{code=200} to be 1, got %f", val)
	}

	ObserveDetection()
	if val := testutil.ToFloat64(monitorDetectionsTotal); val != 1 {
		t.Errorf("Expected monitor_detections_total to be 1, got %f", val)
	}

	ObserveNotification("highlight", true)
	ObserveNotification("highlight", false)
	if val := testutil.ToFloat64(monitorNotificationsTotal.WithLabelValues("highlight", "delivered")); val != 1 {
		t.Errorf("Expected delivered highlight notifications to be 1, got %f", val)
	}
	if val := testutil.ToFloat64(monitorNotificationsTotal.WithLabelValues("highlight", "failed")); val != 1 {
		t.Errorf("Expected failed highlight notifications to be 1, got %f", val)
	}

	ObserveRestart("inner")
	if val := testutil.ToFloat64(monitorRestartsTotal.WithLabelValues("inner")); val != 1 {
		t.Errorf("Expected monitor_restarts_total{scope=inner} to be 1, got %f", val)
	}

	SetConsecutiveErrors(4)
	if val := testutil.ToFloat64(monitorConsecutiveErrors); val != 4 {
		t.Errorf("Expected monitor_consecutive_errors to be 4, got %f", val)
	}

	SetMonitorActive(true)
	if val := testutil.ToFloat64(monitorActive); val != 1 {
		t.Errorf("Expected monitor_active to be 1, got %f", val)
	}
	SetMonitorActive(false)
	if val := testutil.ToFloat64(monitorActive); val != 0 {
		t.Errorf("Expected monitor_active to be 0, got %f", val)
	}

	ObserveHTTPRequest("GET", "/health", 200, 10*time.Millisecond)
	if val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200")); val != 1 {
		t.Errorf("Expected http_requests_total for GET 200 to be 1, got %f", val)
	}
	if val := testutil.CollectAndCount(httpRequestDurationSeconds); val <= 0 {
		t.Errorf("Expected http_request_duration_seconds to be observed, got %d", val)
	}
}
