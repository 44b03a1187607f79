package observability

import (
	"time"

	"github.com/obrafin/recon-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the reconciliation engine.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	boletosTotal    *prometheus.CounterVec
	pixTotal        *prometheus.CounterVec
	cnabRecords     *prometheus.CounterVec
	parseWarnings   prometheus.Counter
	entriesImported prometheus.Counter
	matchesTotal    *prometheus.CounterVec
	externalErrors  *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recon_request_duration_seconds",
				Help:    "Duration of operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		boletosTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recon_boletos_total",
				Help: "Boleto lifecycle events by kind.",
			},
			[]string{"event"},
		),
		pixTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recon_pix_total",
				Help: "PIX charge lifecycle events by kind.",
			},
			[]string{"event"},
		),
		cnabRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recon_cnab_records_total",
				Help: "CNAB records emitted or parsed, by direction.",
			},
			[]string{"direction"},
		),
		parseWarnings: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recon_parse_warnings_total",
				Help: "Return-file lines skipped with a warning.",
			},
		),
		entriesImported: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recon_statement_entries_total",
				Help: "Bank statement entries imported.",
			},
		),
		matchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recon_matches_total",
				Help: "Reconciliation matches created, by method.",
			},
			[]string{"method"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recon_external_errors_total",
				Help: "Total errors from external collaborators.",
			},
			[]string{"service"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrBoleto counts a boleto lifecycle event (issued, registered, paid,
// cancelled).
func (m *Metrics) IncrBoleto(event string) {
	m.boletosTotal.WithLabelValues(event).Inc()
}

// IncrPix counts a PIX lifecycle event (created, approved, rejected,
// cancelled, expired, refunded).
func (m *Metrics) IncrPix(event string) {
	m.pixTotal.WithLabelValues(event).Inc()
}

// AddCnabRecords counts records handled for one direction.
func (m *Metrics) AddCnabRecords(direction string, n int) {
	m.cnabRecords.WithLabelValues(direction).Add(float64(n))
}

// AddParseWarnings counts skipped return-file lines.
func (m *Metrics) AddParseWarnings(n int) {
	m.parseWarnings.Add(float64(n))
}

// AddEntriesImported counts statement entries persisted by an import.
func (m *Metrics) AddEntriesImported(n int) {
	m.entriesImported.Add(float64(n))
}

// IncrMatch counts one created match by method.
func (m *Metrics) IncrMatch(method string) {
	m.matchesTotal.WithLabelValues(method).Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// GetReconciliationSnapshot returns cumulative counters suitable for the
// GET /v1/metrics/reconciliation endpoint.
func (m *Metrics) GetReconciliationSnapshot() *domain.ReconciliationMetrics {
	exact := getCounterValue(m.matchesTotal, string(domain.MatchExactReference))
	tolerant := getCounterValue(m.matchesTotal, string(domain.MatchTolerantValueDate))
	manual := getCounterValue(m.matchesTotal, string(domain.MatchManual))

	total := exact + tolerant + manual
	autoRate := float64(0)
	if total > 0 {
		autoRate = (exact + tolerant) / total
	}

	return &domain.ReconciliationMetrics{
		BoletosIssued:       int64(getCounterValue(m.boletosTotal, "issued")),
		BoletosPaid:         int64(getCounterValue(m.boletosTotal, "paid")),
		PixChargesCreated:   int64(getCounterValue(m.pixTotal, "created")),
		PixExpired:          int64(getCounterValue(m.pixTotal, "expired")),
		CnabRecordsOutbound: int64(getCounterValue(m.cnabRecords, "outbound")),
		CnabRecordsInbound:  int64(getCounterValue(m.cnabRecords, "inbound")),
		ParseWarnings:       int64(getSingleCounterValue(m.parseWarnings)),
		EntriesImported:     int64(getSingleCounterValue(m.entriesImported)),
		MatchesExact:        int64(exact),
		MatchesTolerant:     int64(tolerant),
		MatchesManual:       int64(manual),
		AutoMatchRate:       autoRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getSingleCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
