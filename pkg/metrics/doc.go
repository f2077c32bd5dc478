/*
Package metrics provides Prometheus metrics collection and exposition
for the engine: per-operation counters and latency histograms emitted
by pkg/dispatch as each request is handled, plus gauges polled off the
live Registry/ObservationTable by Collector and pkg/simulate.Broker.

# Metrics

	sdm_operations_total{op,result}             counter
	sdm_transaction_duration_seconds{op}         histogram
	sdm_registry_objects_total                   gauge
	sdm_registry_instances_total{oid}            gauge
	sdm_active_observations_total                gauge
	sdm_notifications_emitted_total              counter
	sdm_notifications_pending_total              gauge
	sdm_block_transfers_total{op}                counter

# Usage

	collector := metrics.NewCollector(registry)
	collector.Start()
	defer collector.Stop()

	http.Handle("/metrics", metrics.Handler())
*/
package metrics
