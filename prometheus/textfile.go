// Package prometheus exports run results as a Prometheus textfile, for
// collection by the node exporter's textfile collector.
package prometheus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/serpscope"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "serpscope"

// Ensure TextfileWriter implements serpscope.ReportWriter at compile time.
var _ serpscope.ReportWriter = (*TextfileWriter)(nil)

// TextfileWriter writes the gauges of the most recent run to a file. Every
// write replaces the previous content.
type TextfileWriter struct {
	path string
}

// NewTextfileWriter creates a TextfileWriter writing to path. The file name
// must end in ".prom" for the textfile collector to pick it up.
func NewTextfileWriter(path string) *TextfileWriter {
	return &TextfileWriter{path: path}
}

// WriteReport implements serpscope.ReportWriter.
func (w *TextfileWriter) WriteReport(_ context.Context, r *serpscope.Report) error {
	if filepath.Ext(w.path) != ".prom" {
		return serpscope.Errorf(serpscope.EINVALID, "metrics file %q must have a .prom extension", w.path)
	}
	reg, err := Collect(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(w.path, reg); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// Collect returns a registry holding the gauges of r.
func Collect(r *serpscope.Report) (*prometheus.Registry, error) {
	labels := prometheus.Labels{"query": r.Query.Query, "location": r.Query.Location}

	timestamp := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "run_timestamp_seconds",
		Help:        "Unix time the run finished.",
		ConstLabels: labels,
	})
	pages := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "pages",
		Help:        "Target pages by extraction outcome.",
		ConstLabels: labels,
	}, []string{"outcome"})
	headings := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "headings",
		Help:        "Unique headings across extracted pages by level.",
		ConstLabels: labels,
	}, []string{"level"})
	retried := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "retried_pages",
		Help:        "Pages that needed the sparse-result retry.",
		ConstLabels: labels,
	})
	skipped := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "skipped_frames",
		Help:        "Cross-origin frames that could not be inspected.",
		ConstLabels: labels,
	})
	confidence := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "feature_confidence",
		Help:        "Fused confidence that a results page feature is present.",
		ConstLabels: labels,
	}, []string{"feature", "policy"})

	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{timestamp, pages, headings, retried, skipped, confidence} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}

	timestamp.Set(float64(r.CreatedAt.Unix()))
	pages.WithLabelValues("extracted").Set(float64(len(r.Pages)))
	pages.WithLabelValues("omitted").Set(float64(len(r.Omitted)))

	var counts [serpscope.MaxLevel]int
	for _, p := range r.Pages {
		for i, n := range p.Outline.Counts() {
			counts[i] += n
		}
		if p.Retried {
			retried.Inc()
		}
		skipped.Add(float64(p.Skipped))
	}
	for i, n := range counts {
		headings.WithLabelValues(fmt.Sprintf("h%d", i+1)).Set(float64(n))
	}

	policy := r.Policy.String()
	for _, f := range r.Features {
		confidence.WithLabelValues(string(f.Feature), policy).Set(f.Confidence)
	}
	return reg, nil
}
