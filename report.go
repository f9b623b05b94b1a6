package serpscope

import (
	"context"
	"time"
)

// FeatureReport is the fused verdict for one feature.
type FeatureReport struct {
	Feature     Feature            `json:"feature"`
	Status      FeatureStatus      `json:"status"`
	Confidence  float64            `json:"confidence"`
	Observation FeatureObservation `json:"observation"`
}

// FeatureReports fuses every feature of obs in reporting order.
func FeatureReports(obs Observations, r Reconciler) []FeatureReport {
	reports := make([]FeatureReport, 0, len(Features))
	for _, f := range Features {
		o := obs.Get(f)
		status := r.Fuse(o)
		reports = append(reports, FeatureReport{
			Feature:     f,
			Status:      status,
			Confidence:  status.Confidence(),
			Observation: o,
		})
	}
	return reports
}

// Report is the result of one brief run.
type Report struct {
	RunID     string      `json:"runId"`
	CreatedAt time.Time   `json:"createdAt"`
	Query     SearchQuery `json:"query"`

	Policy         Policy `json:"policy"`
	PromoteSignals bool   `json:"promoteSignals"`

	Intent    Intent  `json:"intent"`
	TopThemes []Theme `json:"topThemes"`

	Observations Observations    `json:"observations"`
	Features     []FeatureReport `json:"features"`

	// AIOverviewProbeUsed reports whether the dedicated overview query ran;
	// AIOverviewProbeHL is the interface language it used.
	AIOverviewProbeUsed bool   `json:"aiOverviewProbeUsed"`
	AIOverviewProbeHL   string `json:"aiOverviewProbeHl,omitempty"`

	// RenderedSERP reports whether the results page itself was rendered;
	// SERPURL is the results page address.
	RenderedSERP bool   `json:"renderedSerp"`
	SERPURL      string `json:"serpUrl,omitempty"`

	Targets []string       `json:"targets"`
	Pages   []*PageResult  `json:"pages"`
	Omitted []PageOmission `json:"omitted"`
}

// Reconciler returns the reconciler the report was fused with.
func (r *Report) Reconciler() Reconciler {
	return Reconciler{Policy: r.Policy, PromoteSignals: r.PromoteSignals}
}

// Refuse recomputes feature statuses from the stored observations under rec.
func (r *Report) Refuse(rec Reconciler) {
	r.Policy = rec.Policy
	r.PromoteSignals = rec.PromoteSignals
	r.Features = FeatureReports(r.Observations, rec)
}

// Outlines returns the outline of every page.
func (r *Report) Outlines() []Outline {
	outlines := make([]Outline, len(r.Pages))
	for i, p := range r.Pages {
		outlines[i] = p.Outline
	}
	return outlines
}

// ReportWriter persists or publishes a report.
type ReportWriter interface {
	WriteReport(ctx context.Context, r *Report) error
}

// RunSummary is a stored run as listed by a RunStore.
type RunSummary struct {
	RunID     string
	CreatedAt time.Time
	Query     string
	Location  string
	Policy    Policy
	Pages     int
	Omitted   int
}

// RunStore keeps a history of runs. Statuses are recomputed on read.
type RunStore interface {
	SaveRun(ctx context.Context, r *Report) error
	FindRun(ctx context.Context, runID string) (*Report, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}
