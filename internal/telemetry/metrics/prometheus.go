package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// SetupPrometheus builds the registry served on the metrics port. Besides the process and
// build info collectors it exposes repcoach_version_info with the running commit as a label.
// Only GC and scheduler runtime metrics are collected from the go runtime.
func SetupPrometheus(version string, extraCollectors ...prometheus.Collector) *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()

	promRegistry.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(collectors.MetricsGC, collectors.MetricsScheduler),
		),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		newVersionInfo(version),
	)
	for _, c := range extraCollectors {
		promRegistry.MustRegister(c)
	}

	return promRegistry
}

func newVersionInfo(version string) prometheus.Collector {
	version = strings.TrimSpace(version)
	if version == "" {
		version = "unknown"
	}
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   "repcoach",
		Name:        "version_info",
		Help:        "Always 1, labeled with the running version (commit hash)",
		ConstLabels: prometheus.Labels{"version": version},
	}, func() float64 { return 1 })
}
