package main

import (
	"fmt"

	"github.com/fwojciec/serpscope"
)

// Run executes the runs command.
func (c *RunsCmd) Run(deps *Dependencies) error {
	runs, err := deps.Runs.ListRuns(deps.Ctx, c.Limit)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", serpscope.ErrorMessage(err))
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs found. Use 'serpscope brief' to create one.")
		return nil
	}

	for _, r := range runs {
		fmt.Fprintf(deps.Stdout, "%s  %s  %q  %s  %s  %d pages, %d omitted\n",
			r.RunID, r.CreatedAt.Format("2006-01-02 15:04"), r.Query, r.Location, r.Policy, r.Pages, r.Omitted)
	}
	return nil
}
