package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsRecordOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewCronJobMetrics(registry)

	m.ObserveDuration("settlement-close", 2*time.Second)
	m.IncSuccess("settlement-close")
	m.IncSuccess("settlement-close")
	m.IncFailure("outbox-retention")

	families := gather(t, registry)
	if got := counterValue(families, "job_success", "job", "settlement-close"); got != 2 {
		t.Fatalf("job_success = %v, want 2", got)
	}
	if got := counterValue(families, "job_failure", "job", "outbox-retention"); got != 1 {
		t.Fatalf("job_failure = %v, want 1", got)
	}
	histogram := findMetric(families, "job_duration_seconds", "job", "settlement-close")
	if histogram == nil || histogram.GetHistogram().GetSampleCount() != 1 {
		t.Fatalf("expected one duration observation")
	}
}

func TestImportMetricsCountOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewImportMetrics(registry)

	m.IncOutcome("created")
	m.IncOutcome("created")
	m.IncOutcome("duplicate")
	m.IncOutcome("")

	families := gather(t, registry)
	if got := counterValue(families, "channel_import_outcomes_total", "outcome", "created"); got != 2 {
		t.Fatalf("created outcomes = %v, want 2", got)
	}
	if got := counterValue(families, "channel_import_outcomes_total", "outcome", "unknown"); got != 1 {
		t.Fatalf("empty outcome should count as unknown, got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var cron *CronJobMetrics
	cron.ObserveDuration("job", time.Second)
	cron.IncSuccess("job")
	cron.IncFailure("job")

	var imports *ImportMetrics
	imports.IncOutcome("created")

	unregistered := NewCronJobMetrics(nil)
	unregistered.IncSuccess("job")
}

func gather(t *testing.T, registry *prometheus.Registry) []*dto.MetricFamily {
	t.Helper()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather returned error: %v", err)
	}
	return families
}

func counterValue(families []*dto.MetricFamily, name, label, value string) float64 {
	metric := findMetric(families, name, label, value)
	if metric == nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}

func findMetric(families []*dto.MetricFamily, name, label, value string) *dto.Metric {
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric
				}
			}
		}
	}
	return nil
}
