// Package fs writes run reports to the local filesystem.
package fs

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/serpscope"
)

// Files written by Writer.
const (
	HeadingsFile = "serp_headings.csv"
	SummaryFile  = "serp_summary.json"
	DebugFile    = "headings_debug.json"
)

// Ensure Writer implements serpscope.ReportWriter at compile time.
var _ serpscope.ReportWriter = (*Writer)(nil)

// Writer writes a report as a headings CSV, a summary JSON and a per-page
// debug JSON. Each file is replaced atomically.
type Writer struct {
	baseDir string
}

// NewWriter creates a new Writer that writes to the given base directory.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// WriteReport writes the three report files.
func (w *Writer) WriteReport(ctx context.Context, r *serpscope.Report) error {
	if err := os.MkdirAll(w.baseDir, 0755); err != nil {
		return err
	}

	table := serpscope.NewHeadingTable(r.Pages)

	headings, err := FormatHeadings(table)
	if err != nil {
		return fmt.Errorf("formatting headings: %w", err)
	}
	summary, err := json.MarshalIndent(NewSummary(r, table), "", "  ")
	if err != nil {
		return fmt.Errorf("formatting summary: %w", err)
	}
	debug, err := json.MarshalIndent(NewDebug(r, table), "", "  ")
	if err != nil {
		return fmt.Errorf("formatting debug: %w", err)
	}

	for _, f := range []struct {
		name string
		data []byte
	}{
		{HeadingsFile, headings},
		{SummaryFile, summary},
		{DebugFile, debug},
	} {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFileAtomic(filepath.Join(w.baseDir, f.name), f.data); err != nil {
			return err
		}
	}
	return nil
}

// FormatHeadings renders the table as CSV.
func FormatHeadings(t serpscope.HeadingTable) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(t.Header); err != nil {
		return nil, err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Summary is the query-level part of a report.
type Summary struct {
	RunID               string                    `json:"runId"`
	CreatedAt           time.Time                 `json:"createdAt"`
	Query               string                    `json:"query"`
	Location            string                    `json:"location"`
	GoogleDomain        string                    `json:"googleDomain"`
	GL                  string                    `json:"gl"`
	HL                  string                    `json:"hl"`
	Num                 int                       `json:"num"`
	Policy              serpscope.Policy          `json:"policy"`
	Features            []serpscope.FeatureReport `json:"features"`
	Intent              serpscope.Intent          `json:"intent"`
	TopThemes           []serpscope.Theme         `json:"topThemes"`
	GoogleURL           string                    `json:"googleUrl,omitempty"`
	RenderedSERP        bool                      `json:"renderedSerp"`
	AIOverviewProbeUsed bool                      `json:"aiOverviewProbeUsed"`
	AIOverviewProbeHL   string                    `json:"aiOverviewProbeHl,omitempty"`
	Pages               int                       `json:"pages"`
	Omitted             []serpscope.PageOmission  `json:"omitted"`
	HeadingMaxCols      map[string]int            `json:"headingMaxCols"`
}

// NewSummary summarizes r.
func NewSummary(r *serpscope.Report, t serpscope.HeadingTable) Summary {
	omitted := r.Omitted
	if omitted == nil {
		omitted = []serpscope.PageOmission{}
	}
	return Summary{
		RunID:               r.RunID,
		CreatedAt:           r.CreatedAt,
		Query:               r.Query.Query,
		Location:            r.Query.Location,
		GoogleDomain:        r.Query.Domain,
		GL:                  r.Query.GL,
		HL:                  r.Query.HL,
		Num:                 r.Query.Num,
		Policy:              r.Policy,
		Features:            r.Features,
		Intent:              r.Intent,
		TopThemes:           r.TopThemes,
		GoogleURL:           r.SERPURL,
		RenderedSERP:        r.RenderedSERP,
		AIOverviewProbeUsed: r.AIOverviewProbeUsed,
		AIOverviewProbeHL:   r.AIOverviewProbeHL,
		Pages:               len(r.Pages),
		Omitted:             omitted,
		HeadingMaxCols:      levelMap(t.MaxCols),
	}
}

// Debug holds per-page extraction diagnostics.
type Debug struct {
	Pages   []DebugPage    `json:"pages"`
	MaxCols map[string]int `json:"maxCols"`
}

// DebugPage holds the extraction diagnostics of one page.
type DebugPage struct {
	URL           string                `json:"url"`
	Counts        map[string]int        `json:"counts"`
	Frames        []serpscope.FrameStat `json:"frames"`
	SkippedFrames int                   `json:"skippedFrames"`
	Retried       bool                  `json:"retried"`
	Fingerprint   string                `json:"fingerprint"`
	WordCount     int                   `json:"wordCount,omitempty"`
}

// NewDebug returns the diagnostics of every page of r.
func NewDebug(r *serpscope.Report, t serpscope.HeadingTable) Debug {
	d := Debug{Pages: make([]DebugPage, 0, len(r.Pages)), MaxCols: levelMap(t.MaxCols)}
	for _, p := range r.Pages {
		frames := p.Frames
		if frames == nil {
			frames = []serpscope.FrameStat{}
		}
		d.Pages = append(d.Pages, DebugPage{
			URL:           p.URL,
			Counts:        levelMap(p.Outline.Counts()),
			Frames:        frames,
			SkippedFrames: p.Skipped,
			Retried:       p.Retried,
			Fingerprint:   p.Fingerprint,
			WordCount:     p.WordCount,
		})
	}
	return d
}

func levelMap(counts [serpscope.MaxLevel]int) map[string]int {
	m := make(map[string]int, serpscope.MaxLevel)
	for i, n := range counts {
		m[fmt.Sprintf("h%d", i+1)] = n
	}
	return m
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
