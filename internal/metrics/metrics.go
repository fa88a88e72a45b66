package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
// All methods are safe on a nil receiver so tests can omit metrics.
type Metrics struct {
	CampaignRecipients *prometheus.CounterVec
	CampaignRuns       *prometheus.CounterVec
	Unsubscribes       *prometheus.CounterVec
	PageViewsTracked   prometheus.Counter
	PageViewsDropped   prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec

	registry *prometheus.Registry
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		CampaignRecipients: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_campaign_recipients_total",
				Help: "Campaign delivery attempts by outcome",
			},
			[]string{"status"},
		),
		CampaignRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_campaign_runs_total",
				Help: "Campaign send runs by result",
			},
			[]string{"result"},
		),
		Unsubscribes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_unsubscribes_total",
				Help: "Unsubscribe requests by result",
			},
			[]string{"result"},
		),
		PageViewsTracked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "folio_page_views_tracked_total",
			Help: "Page views persisted",
		}),
		PageViewsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "folio_page_views_dropped_total",
			Help: "Page views lost to tracking failures",
		}),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_http_requests_total",
				Help: "HTTP requests by route pattern and status code",
			},
			[]string{"route", "code"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "folio_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.CampaignRecipients,
		m.CampaignRuns,
		m.Unsubscribes,
		m.PageViewsTracked,
		m.PageViewsDropped,
		m.HTTPRequests,
		m.HTTPDuration,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the private registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncRecipient(status string) {
	if m == nil {
		return
	}
	m.CampaignRecipients.WithLabelValues(status).Inc()
}

func (m *Metrics) IncRun(result string) {
	if m == nil {
		return
	}
	m.CampaignRuns.WithLabelValues(result).Inc()
}

func (m *Metrics) IncUnsubscribe(result string) {
	if m == nil {
		return
	}
	m.Unsubscribes.WithLabelValues(result).Inc()
}

func (m *Metrics) IncPageViewTracked() {
	if m == nil {
		return
	}
	m.PageViewsTracked.Inc()
}

func (m *Metrics) IncPageViewDropped() {
	if m == nil {
		return
	}
	m.PageViewsDropped.Inc()
}

func (m *Metrics) ObserveHTTP(route string, code int, took time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(took.Seconds())
}
