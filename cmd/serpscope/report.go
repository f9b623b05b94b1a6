package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fwojciec/serpscope"
)

// printReport writes a human readable summary of r.
func printReport(w io.Writer, r *serpscope.Report) {
	fmt.Fprintf(w, "Run %s  %s\n", r.RunID, r.CreatedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(w, "Query %q in %s\n", r.Query.Query, r.Query.Location)
	fmt.Fprintf(w, "Pages: %d extracted, %d omitted\n", len(r.Pages), len(r.Omitted))
	for _, o := range r.Omitted {
		fmt.Fprintf(w, "  %d. %s (%s)\n", o.Position, o.URL, o.Reason)
	}
	fmt.Fprintf(w, "Intent: %s\n", r.Intent)

	themes := make([]string, len(r.TopThemes))
	for i, t := range r.TopThemes {
		themes[i] = fmt.Sprintf("%s (%d)", t.Text, t.Score)
	}
	fmt.Fprintf(w, "Themes: %s\n", strings.Join(themes, ", "))

	policy := r.Policy.String()
	if r.PromoteSignals {
		policy += ", signals promoted"
	}
	fmt.Fprintf(w, "Features (%s):\n", policy)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, f := range r.Features {
		fmt.Fprintf(tw, "  %s\t%s\t%.1f\t%s\n", f.Feature, f.Status, f.Confidence, evidence(f.Observation))
	}
	tw.Flush()
}

// evidence lists the channels that observed a feature.
func evidence(o serpscope.FeatureObservation) string {
	var parts []string
	if o.FromStructuredSource {
		parts = append(parts, "listing")
	}
	if o.FromRenderedPage {
		parts = append(parts, "rendered")
	}
	for _, s := range o.SupportingSignals {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ", ")
}
