package core

import "context"

const (
	MetricLinkAccountTotal        = metricsNamespace + ".link_account.total"
	MetricLinkAccountDuration     = metricsNamespace + ".link_account.duration_ms"
	MetricLinkAccountStageFailure = metricsNamespace + ".link_account.stage_failure.total"
)

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func cloneTags(tags map[string]string) map[string]string {
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

var _ MetricsRecorder = NopMetricsRecorder{}
