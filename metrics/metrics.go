// Package metrics records per-run Prometheus metrics and writes them in
// the text exposition format.
package metrics

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/docscheck/output/report"
	"github.com/c360studio/docscheck/processor/ast"
)

// Run holds the metrics of one docs-check run on a private registry.
type Run struct {
	registry *prometheus.Registry

	filesResolved  prometheus.Gauge
	symbols        *prometheus.GaugeVec
	parseErrors    prometheus.Counter
	parseDuration  *prometheus.HistogramVec
	violations     prometheus.Gauge
	links          *prometheus.GaugeVec
	staleExemption prometheus.Gauge

	mu sync.Mutex
}

// NewRun creates and registers the run metrics.
func NewRun() *Run {
	r := &Run{registry: prometheus.NewRegistry()}

	r.filesResolved = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "docs_check_files_resolved",
		Help: "Source files produced by the entry resolver",
	})
	r.symbols = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "docs_check_symbols",
		Help: "Exported symbols by declaration kind",
	}, []string{"kind"})
	r.parseErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docs_check_parse_errors_total",
		Help: "Files skipped because they could not be parsed",
	})
	r.parseDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docs_check_parse_duration_seconds",
		Help:    "Time spent parsing one file",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"language"})
	r.violations = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "docs_check_coverage_violations",
		Help: "Undocumented exported symbols",
	})
	r.links = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "docs_check_links",
		Help: "Distinct external references by resolution state",
	}, []string{"state"})
	r.staleExemption = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "docs_check_stale_exemptions",
		Help: "Exemptions naming no exported symbol",
	})

	r.registry.MustRegister(
		r.filesResolved,
		r.symbols,
		r.parseErrors,
		r.parseDuration,
		r.violations,
		r.links,
		r.staleExemption,
	)
	return r
}

// Registry returns the private registry backing the run.
func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveParse records one file parse. It is safe for concurrent use.
func (r *Run) ObserveParse(language string, elapsed time.Duration, err error) {
	r.parseDuration.WithLabelValues(language).Observe(elapsed.Seconds())
	if err != nil {
		r.parseErrors.Inc()
	}
}

// SetFiles records the number of resolved files.
func (r *Run) SetFiles(n int) {
	r.filesResolved.Set(float64(n))
}

// RecordSymbols counts symbols per kind.
func (r *Run) RecordSymbols(symbols []*ast.Symbol) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[ast.DeclarationKind]int)
	for _, s := range symbols {
		counts[s.Kind]++
	}
	for _, k := range ast.AllKinds() {
		r.symbols.WithLabelValues(k.String()).Set(float64(counts[k]))
	}
}

// RecordReport records the coverage and link results.
func (r *Run) RecordReport(rep *report.Report) {
	r.violations.Set(float64(len(rep.Coverage.Violations)))
	r.staleExemption.Set(float64(len(rep.Coverage.StaleExemptions)))

	unresolved := len(rep.Links.Unresolved())
	r.links.WithLabelValues("resolved").Set(float64(len(rep.Links.Links) - unresolved))
	r.links.WithLabelValues("unresolved").Set(float64(unresolved))
	r.links.WithLabelValues("local").Set(float64(rep.Links.Local))
}

// WriteFile writes the metrics to path in the text exposition format.
func (r *Run) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(err, "write metrics file %s", path)
	}
	return nil
}
