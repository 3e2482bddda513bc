// Package metrics exposes directory statistics as Prometheus metrics.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/DaDevFox/task-systems/social-core/internal/events"
	"github.com/DaDevFox/task-systems/social-core/internal/service"
)

// StatsSource supplies the statistics snapshot read on every scrape
type StatsSource interface {
	Stats() service.Stats
}

// Collector reports the directory statistics as gauges plus a counter of
// activity events seen on the bus
type Collector struct {
	source   StatsSource
	activity *prometheus.CounterVec

	users           *prometheus.Desc
	groups          *prometheus.Desc
	posts           *prometheus.Desc
	positivePercent *prometheus.Desc
	namesValid      *prometheus.Desc
}

// NewCollector creates a collector reading from source
func NewCollector(source StatsSource) *Collector {
	return &Collector{
		source: source,
		activity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_activity_events_total",
			Help: "Directory activity events by type",
		}, []string{"type"}),
		users:           prometheus.NewDesc("social_users", "Number of users", nil, nil),
		groups:          prometheus.NewDesc("social_groups", "Number of groups, root included", nil, nil),
		posts:           prometheus.NewDesc("social_posts", "Number of posts across all users", nil, nil),
		positivePercent: prometheus.NewDesc("social_positive_post_percent", "Integer percentage of posts containing a positive word", nil, nil),
		namesValid:      prometheus.NewDesc("social_names_valid", "1 when every name is unique and whitespace free", nil, nil),
	}
}

// ObserveBus counts every activity event published on bus
func (c *Collector) ObserveBus(bus *events.Bus) {
	for _, et := range []events.EventType{
		events.EventGroupCreated,
		events.EventUserCreated,
		events.EventPostPublished,
		events.EventFollowAdded,
	} {
		bus.Subscribe(et, func(ctx context.Context, e events.Event) error {
			c.activity.WithLabelValues(string(e.Type)).Inc()
			return nil
		})
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.users
	ch <- c.groups
	ch <- c.posts
	ch <- c.positivePercent
	ch <- c.namesValid
	c.activity.Describe(ch)
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	valid := 0.0
	if s.NamesValid {
		valid = 1
	}

	ch <- prometheus.MustNewConstMetric(c.users, prometheus.GaugeValue, float64(s.Users))
	ch <- prometheus.MustNewConstMetric(c.groups, prometheus.GaugeValue, float64(s.Groups))
	ch <- prometheus.MustNewConstMetric(c.posts, prometheus.GaugeValue, float64(s.Posts))
	ch <- prometheus.MustNewConstMetric(c.positivePercent, prometheus.GaugeValue, float64(s.PositivePercent))
	ch <- prometheus.MustNewConstMetric(c.namesValid, prometheus.GaugeValue, valid)
	c.activity.Collect(ch)
}

var _ prometheus.Collector = (*Collector)(nil)
