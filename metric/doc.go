// Package metric exports blockstore metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	bs := blockgate.New(idx, regions,
//	    blockgate.WithMetricsCollector(metric.NewPrometheusCollector(reg, "blockgate")),
//	)
package metric
