package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/serpscope"
	"github.com/fwojciec/serpscope/fs"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	r, err := deps.Runs.FindRun(deps.Ctx, c.RunID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", serpscope.ErrorMessage(err))
		return err
	}

	rec := r.Reconciler()
	if c.Policy != "" {
		if rec.Policy, err = serpscope.ParsePolicy(c.Policy); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", serpscope.ErrorMessage(err))
			return err
		}
	}
	switch c.Promote {
	case "on":
		rec.PromoteSignals = true
	case "off":
		rec.PromoteSignals = false
	}
	r.Refuse(rec)

	if c.Out != "" {
		if err := fs.NewWriter(c.Out).WriteReport(deps.Ctx, r); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	printReport(deps.Stdout, r)
	return nil
}
