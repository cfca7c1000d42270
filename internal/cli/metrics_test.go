package cli

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/flywheel/internal/observability"
)

type metricsMock struct {
	calculateFn func(since time.Time) (*observability.IOMetrics, error)
}

func (m *metricsMock) Calculate(since time.Time) (*observability.IOMetrics, error) {
	return m.calculateFn(since)
}

func TestParseSinceDuration(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		input   string
		wantErr bool
	}{
		{"7d", false},
		{"30d", false},
		{"24h", false},
		{"", false}, // defaults to 7 days
		{"5w", true},
		{"abc", true},
		{"d", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSinceDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSinceDuration(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Before(now.Add(time.Second)) {
				t.Errorf("parseSinceDuration(%q) = %v, expected a past time", tt.input, got)
			}
		})
	}
}

func TestMetricsCmd_NilCalculator(t *testing.T) {
	orig := MetricsCalc
	defer func() { MetricsCalc = orig }()
	MetricsCalc = nil

	err := metricsCmd.RunE(metricsCmd, []string{})
	if err == nil {
		t.Fatal("expected error when MetricsCalc is nil")
	}
	if !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMetricsCmd_Table(t *testing.T) {
	orig := MetricsCalc
	defer func() { MetricsCalc = orig }()

	MetricsCalc = &metricsMock{
		calculateFn: func(_ time.Time) (*observability.IOMetrics, error) {
			return &observability.IOMetrics{
				Loads:        4,
				Saves:        2,
				BytesWritten: 512,
				EventCount:   6,
			}, nil
		},
	}

	if err := metricsCmd.RunE(metricsCmd, []string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMetricsCmd_JSON(t *testing.T) {
	orig := MetricsCalc
	defer func() { MetricsCalc = orig }()

	MetricsCalc = &metricsMock{
		calculateFn: func(_ time.Time) (*observability.IOMetrics, error) {
			return &observability.IOMetrics{Saves: 1}, nil
		},
	}

	metricsJSON = true
	defer func() { metricsJSON = false }()

	if err := metricsCmd.RunE(metricsCmd, []string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMetricsCmd_CalculateError(t *testing.T) {
	orig := MetricsCalc
	defer func() { MetricsCalc = orig }()

	MetricsCalc = &metricsMock{
		calculateFn: func(_ time.Time) (*observability.IOMetrics, error) {
			return nil, fmt.Errorf("event log unreadable")
		},
	}

	err := metricsCmd.RunE(metricsCmd, []string{})
	if err == nil {
		t.Fatal("expected error from Calculate")
	}
	if !strings.Contains(err.Error(), "calculating metrics") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMetricsCmd_BadSince(t *testing.T) {
	orig := MetricsCalc
	defer func() { MetricsCalc = orig }()
	MetricsCalc = &metricsMock{
		calculateFn: func(_ time.Time) (*observability.IOMetrics, error) {
			return &observability.IOMetrics{}, nil
		},
	}

	metricsSince = "yesterday"
	defer func() { metricsSince = "7d" }()

	if err := metricsCmd.RunE(metricsCmd, []string{}); err == nil {
		t.Fatal("expected error for unparseable --since")
	}
}
