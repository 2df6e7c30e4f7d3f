package middleware

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"Bearer a b", "", false},
	}

	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNewMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.requests.WithLabelValues("/test.v1.Svc/Call", "ok").Inc()
	m.duration.WithLabelValues("/test.v1.Svc/Call").Observe(0.01)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	found := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				found[mf.GetName()] = c.GetValue()
			}
			if h := metric.GetHistogram(); h != nil {
				found[mf.GetName()] = float64(h.GetSampleCount())
			}
		}
	}

	if found["expensemate_rpc_requests_total"] != 1 {
		t.Errorf("rpc_requests_total = %v, want 1", found["expensemate_rpc_requests_total"])
	}
	if found["expensemate_rpc_duration_seconds"] != 1 {
		t.Errorf("rpc_duration_seconds count = %v, want 1", found["expensemate_rpc_duration_seconds"])
	}
}
