package metrics

import "github.com/prometheus/client_golang/prometheus"

// RecorderStats provides the collector access to live controller state.
type RecorderStats interface {
	Recording() bool
	Level() float32
}

// Collector reads controller state at scrape time.
type Collector struct {
	stats RecorderStats

	recording *prometheus.Desc
	level     *prometheus.Desc
}

func NewCollector(stats RecorderStats) *Collector {
	return &Collector{
		stats: stats,
		recording: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "recording"),
			"1 while a recording session is open.",
			nil, nil,
		),
		level: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "input_peak"),
			"Peak amplitude of the most recent capture block.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.recording
	ch <- c.level
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	var recording, level float64
	if c.stats != nil {
		if c.stats.Recording() {
			recording = 1
		}
		level = float64(c.stats.Level())
	}
	ch <- prometheus.MustNewConstMetric(c.recording, prometheus.GaugeValue, recording)
	ch <- prometheus.MustNewConstMetric(c.level, prometheus.GaugeValue, level)
}
