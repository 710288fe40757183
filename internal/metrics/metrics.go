package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EndpointResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "endpoint_responses_total",
		Help: "The total number of endpoint responses",
	}, []string{"endpoint", "status_code"})

	// Offload pipeline metrics
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offload_runs_total",
		Help: "Completed offload runs by backend and outcome",
	}, []string{"backend", "status"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "offload_run_duration_ms",
		Help:    "End to end duration of an offload run in milliseconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 15), // 1ms to ~32s
	})

	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "offload_phase_duration_ms",
		Help:    "Duration of one pipeline phase in milliseconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 15), // 0.1ms to ~3.2s
	}, []string{"phase"})

	TransferredBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offload_transferred_bytes_total",
		Help: "Bytes moved across the host/device boundary by direction",
	}, []string{"direction"})

	KernelLaunches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offload_kernel_launches_total",
		Help: "Kernel dispatches by backend",
	}, []string{"backend"})

	VectorLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "offload_vector_length",
		Help: "Element count of the vectors in the current configuration",
	})

	WorkgroupSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "offload_workgroup_size",
		Help: "Work-items per work-group in the current configuration",
	})
)
