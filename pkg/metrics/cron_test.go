package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsRecordsRunsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.ObserveDuration("pending-order-expiry", 250*time.Millisecond)
	m.IncSuccess("pending-order-expiry")
	m.IncFailure("artwork-temp-cleanup")
	m.IncSkipped()
	m.IncSkipped()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "cron_job_runs_total", "result", "success"); err != nil || got != 1 {
		t.Fatalf("expected success=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "cron_job_runs_total", "job", "artwork-temp-cleanup"); err != nil || got != 1 {
		t.Fatalf("expected cleanup failure=1, got %f (%v)", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "cron_job_duration_seconds", "job", "pending-order-expiry"); err != nil || got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f (%v)", got, err)
	}
	skipped := findMetricFamily(mfs, "cron_job_cycles_skipped_total")
	if skipped == nil || skipped.GetMetric()[0].GetCounter().GetValue() != 2 {
		t.Fatalf("expected two skipped cycles, got %v", skipped)
	}
	last := findMetricFamily(mfs, "cron_job_last_success_timestamp_seconds")
	if last == nil || last.GetMetric()[0].GetGauge().GetValue() <= 0 {
		t.Fatalf("expected last success timestamp, got %v", last)
	}
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	m.IncSuccess("job")
	m.IncFailure("job")
	m.IncSkipped()
	m.ObserveDuration("job", time.Second)
	NewCronJobMetrics(nil).IncSkipped()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
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
