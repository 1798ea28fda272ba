package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records per-image processing outcomes.
type PipelineMetrics struct {
	duration   *prometheus.HistogramVec
	images     *prometheus.CounterVec
	detections *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "image_processing_duration_seconds",
		Help:    "End-to-end duration of one image pipeline run.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	images := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "images_processed_total",
		Help: "Images processed, labeled by terminal outcome.",
	}, []string{"outcome"})
	detections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "detections_recorded_total",
		Help: "Detections persisted, labeled by category.",
	}, []string{"category"})
	reg.MustRegister(duration, images, detections)
	return &PipelineMetrics{
		duration:   duration,
		images:     images,
		detections: detections,
	}
}

// ObserveDuration records the duration of a pipeline run by outcome.
func (p *PipelineMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncImage counts a finished pipeline run by outcome.
func (p *PipelineMetrics) IncImage(outcome string) {
	if p == nil || p.images == nil {
		return
	}
	p.images.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncDetection counts a persisted detection by category.
func (p *PipelineMetrics) IncDetection(category string) {
	if p == nil || p.detections == nil {
		return
	}
	p.detections.WithLabelValues(normalizeLabel(category)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
