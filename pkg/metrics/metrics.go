// Package metrics records run measurements in Prometheus format so batch runs can
// be collected through the node exporter textfile directory.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gastruloid/internal/models"
)

// Recorder owns a private registry so independent runs never share counters
type Recorder struct {
	registry *prometheus.Registry

	setsProcessed *prometheus.CounterVec
	setDuration   prometheus.Histogram
	channelMax    *prometheus.GaugeVec
	missingFiles  *prometheus.CounterVec
}

// NewRecorder creates a recorder with all run metrics registered
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		setsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gastruloid_sets_processed_total",
			Help: "Image sets processed, by outcome.",
		}, []string{"status"}),
		setDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gastruloid_set_duration_seconds",
			Help:    "Time spent processing one image set.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		channelMax: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gastruloid_channel_max_intensity",
			Help: "Global maximum of each channel's profiles before normalization.",
		}, []string{"channel"}),
		missingFiles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gastruloid_missing_files_total",
			Help: "Channel images replaced by a placeholder because the file was missing.",
		}, []string{"channel"}),
	}
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// SetProcessed counts one processed set and observes its duration
func (r *Recorder) SetProcessed(status models.SetStatus, elapsed time.Duration) {
	r.setsProcessed.WithLabelValues(status.String()).Inc()
	r.setDuration.Observe(elapsed.Seconds())
}

// MissingFile counts one placeholder substitution
func (r *Recorder) MissingFile(channel models.Channel) {
	r.missingFiles.WithLabelValues(channel.String()).Inc()
}

// ChannelMaxima records the normalization divisor of each channel
func (r *Recorder) ChannelMaxima(maxima [models.NumChannels]float64) {
	for _, c := range models.Channels {
		r.channelMax.WithLabelValues(c.String()).Set(maxima[c])
	}
}

// WriteTextfile writes every metric to path in the text exposition format
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrap(err, "failed to write metrics textfile")
	}
	return nil
}
