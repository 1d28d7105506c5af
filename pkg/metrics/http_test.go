package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestHTTPMetricsExportsCounterAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)
	metrics.ObserveRequest(http.MethodGet, "/api/apps", http.StatusOK, 120*time.Millisecond)
	metrics.ObserveRequest(http.MethodGet, "/api/apps", http.StatusOK, 80*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	counter := findMetricFamily(mfs, "http_requests_total")
	if counter == nil {
		t.Fatal("http_requests_total not registered")
	}
	var count float64
	for _, metric := range counter.GetMetric() {
		if matchesLabel(metric.GetLabel(), "route", "/api/apps") &&
			matchesLabel(metric.GetLabel(), "status", "200") {
			count = metric.GetCounter().GetValue()
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 requests, got %f", count)
	}

	hist := findMetricFamily(mfs, "http_request_duration_seconds")
	if hist == nil {
		t.Fatal("http_request_duration_seconds not registered")
	}
	var sum float64
	for _, metric := range hist.GetMetric() {
		if matchesLabel(metric.GetLabel(), "route", "/api/apps") {
			sum = metric.GetHistogram().GetSampleSum()
		}
	}
	if sum <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", sum)
	}
}

func TestHTTPMetricsNilSafe(t *testing.T) {
	var metrics *HTTPMetrics
	metrics.ObserveRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)

	unregistered := NewHTTPMetrics(nil)
	unregistered.ObserveRequest(http.MethodGet, "", http.StatusOK, time.Millisecond)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
