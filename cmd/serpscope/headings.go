package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/serpscope"
)

// Run executes the headings command.
func (c *HeadingsCmd) Run(deps *Dependencies) error {
	pages, omitted, err := deps.Pages.ExtractAll(deps.Ctx, c.URLs, progressPrinter(deps))
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", serpscope.ErrorMessage(err))
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Pages   []*serpscope.PageResult  `json:"pages"`
			Omitted []serpscope.PageOmission `json:"omitted"`
		}{pages, omitted})
	}

	for _, p := range pages {
		fmt.Fprintf(deps.Stdout, "%s\n", p.URL)
		if p.Meta.Title != "" {
			fmt.Fprintf(deps.Stdout, "  title: %s\n", p.Meta.Title)
		}
		for _, h := range p.Outline.Records() {
			fmt.Fprintf(deps.Stdout, "  H%d %s\n", h.Level, h.Text)
		}
	}
	for _, o := range omitted {
		fmt.Fprintf(deps.Stdout, "%s\n  omitted: %s\n", o.URL, o.Reason)
	}

	if len(pages) == 0 && len(omitted) > 0 {
		return serpscope.Errorf(serpscope.EUNREACHABLE, "no page could be extracted")
	}
	return nil
}
