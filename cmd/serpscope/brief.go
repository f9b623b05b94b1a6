package main

import (
	"fmt"
	"log/slog"

	"github.com/fwojciec/serpscope"
	"github.com/fwojciec/serpscope/probe"
)

// Reconciler returns the fusion policy selected by the flags.
func (c *BriefCmd) Reconciler() (serpscope.Reconciler, error) {
	policy, err := serpscope.ParsePolicy(c.Policy)
	if err != nil {
		return serpscope.Reconciler{}, err
	}
	return serpscope.Reconciler{Policy: policy, PromoteSignals: c.Promote}, nil
}

// ProbeOptions returns the feature probe options selected by the flags. The
// rendered channel is wired separately.
func (c *BriefCmd) ProbeOptions(logger *slog.Logger) []probe.Option {
	return []probe.Option{
		probe.WithAlwaysProbeAIOverview(c.AlwaysProbeAIO),
		probe.WithAIOverviewFallbackHL(c.AIOFallbackHL),
		probe.WithExtraWait(c.ExtraWait),
		probe.WithLogger(logger),
	}
}

// Run executes the brief command.
func (c *BriefCmd) Run(deps *Dependencies) error {
	q := c.SearchQuery()
	if err := q.Validate(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", serpscope.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Searching %q in %s (%s, gl=%s, hl=%s)\n", q.Query, q.Location, q.Domain, q.GL, q.HL)
	r, err := deps.Briefs.Run(deps.Ctx, q, progressPrinter(deps))
	if r == nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", serpscope.ErrorMessage(err))
		return err
	}

	printReport(deps.Stdout, r)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}
	fmt.Fprintf(deps.Stdout, "Wrote %s\n", c.Out)
	return nil
}

// progressPrinter reports page extraction progress on stderr.
func progressPrinter(deps *Dependencies) serpscope.ExtractProgressFunc {
	return func(p serpscope.ExtractProgress) {
		if p.Error != nil {
			fmt.Fprintf(deps.Stderr, "  [%d/%d] skip %s: %s\n", p.Completed, p.Total, p.URL, serpscope.ErrorMessage(p.Error))
			return
		}
		fmt.Fprintf(deps.Stderr, "  [%d/%d] %s\n", p.Completed, p.Total, p.URL)
	}
}
