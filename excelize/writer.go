// Package excelize writes run reports as XLSX workbooks.
package excelize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/serpscope"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	HeadingsSheet = "Headings"
	SummarySheet  = "SERP_Summary"
)

// Ensure Writer implements serpscope.ReportWriter at compile time.
var _ serpscope.ReportWriter = (*Writer)(nil)

// Writer writes a report to a workbook with a headings sheet and a results
// page summary sheet.
type Writer struct {
	path string
}

// NewWriter creates a Writer saving to path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// WriteReport builds and saves the workbook, replacing any existing file.
func (w *Writer) WriteReport(ctx context.Context, r *serpscope.Report) error {
	f, err := Build(r)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

// Build returns the workbook of r. The caller must close it.
func Build(r *serpscope.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), HeadingsSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	table := serpscope.NewHeadingTable(r.Pages)
	rows := append([][]string{table.Header}, table.Rows...)
	for i, row := range rows {
		if err := setRow(f, HeadingsSheet, i+1, toAny(row)); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	for i, row := range SummaryRows(r) {
		if err := setRow(f, SummarySheet, i+1, row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

// SummaryRows lays out the feature evidence: one row per channel followed
// by the fused verdicts under the report's policy. The rendered row is
// present only when the results page was rendered.
func SummaryRows(r *serpscope.Report) [][]any {
	header := []any{"Source", "Location", "TopN"}
	for _, f := range serpscope.Features {
		header = append(header, string(f))
	}
	header = append(header, "Signals", "GoogleURL", "AioProbeUsed")

	channel := func(source string, seen func(serpscope.FeatureObservation) bool, signals string) []any {
		row := []any{source, r.Query.Location, r.Query.Num}
		for _, f := range serpscope.Features {
			row = append(row, seen(r.Observations.Get(f)))
		}
		return append(row, signals, dash(r.SERPURL), r.AIOverviewProbeUsed)
	}

	rows := [][]any{
		header,
		channel("SerpAPI", func(o serpscope.FeatureObservation) bool { return o.FromStructuredSource }, "—"),
	}
	if r.RenderedSERP {
		rows = append(rows, channel("HTML", func(o serpscope.FeatureObservation) bool { return o.FromRenderedPage }, signalSummary(r.Observations)))
	}

	fused := []any{"Fused (" + r.Policy.String() + ")", r.Query.Location, r.Query.Num}
	for _, fr := range r.Features {
		fused = append(fused, fr.Status.String())
	}
	rows = append(rows, append(fused, "—", dash(r.SERPURL), r.AIOverviewProbeUsed))
	return rows
}

// signalSummary lists the weak signals per feature, e.g.
// "AIOverview: network_activity, text_pattern".
func signalSummary(obs serpscope.Observations) string {
	var parts []string
	for _, f := range serpscope.Features {
		o := obs.Get(f)
		if !o.HasSignals() {
			continue
		}
		names := make([]string, len(o.SupportingSignals))
		for i, s := range o.SupportingSignals {
			names[i] = string(s)
		}
		parts = append(parts, string(f)+": "+strings.Join(names, ", "))
	}
	if len(parts) == 0 {
		return "—"
	}
	return strings.Join(parts, "; ")
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(row []string) []any {
	out := make([]any, len(row))
	for i, s := range row {
		out[i] = s
	}
	return out
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
