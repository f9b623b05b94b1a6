package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/serpscope"
	"github.com/fwojciec/serpscope/extract"
	"github.com/fwojciec/serpscope/readability"
	"github.com/fwojciec/serpscope/trafilatura"
)

// BriefRunner runs a complete brief for a query.
type BriefRunner interface {
	Run(ctx context.Context, q serpscope.SearchQuery, progress serpscope.ExtractProgressFunc) (*serpscope.Report, error)
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Runs   serpscope.RunStore
	Briefs BriefRunner
	Pages  serpscope.PageExtractor
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool   `short:"v" help:"Log debug output to stderr"`
	DB      string `env:"SERPSCOPE_DB" help:"Run history database path"`

	Brief    BriefCmd    `cmd:"" help:"Analyze the results page of a query"`
	Headings HeadingsCmd `cmd:"" help:"Extract heading outlines from pages"`
	Runs     RunsCmd     `cmd:"" help:"List stored runs"`
	Show     ShowCmd     `cmd:"" help:"Show a stored run, optionally under another policy"`
}

// RenderFlags select and tune the page renderer.
type RenderFlags struct {
	Renderer       string        `enum:"browser,http" default:"browser" help:"Page renderer (browser runs Chrome, http fetches without scripts)"`
	BrowserBin     string        `env:"SERPSCOPE_BROWSER" type:"path" help:"Chrome binary (looked up or downloaded when unset)"`
	Headful        bool          `help:"Show the browser window"`
	RecycleAfter   int64         `default:"75" help:"Pages served before the browser is restarted (0 never restarts)"`
	Concurrency    int           `short:"c" default:"1" help:"Pages rendered concurrently"`
	Timeout        time.Duration `default:"2m" help:"Per-page time budget"`
	ExtraWait      time.Duration `default:"2s" help:"Pause after scrolling before the snapshot"`
	RetryWait      time.Duration `help:"Pause before re-extracting a sparse page (defaults to extra wait + 500ms)"`
	ScrollSteps    int           `default:"16" help:"Scroll steps before extraction"`
	ScrollStepPx   int           `name:"scroll-step-px" default:"950" help:"Pixels per scroll step"`
	RateLimit      float64       `default:"1" help:"Requests per second per host (0 disables)"`
	RespectNoindex bool          `help:"Omit pages whose robots directive forbids indexing"`
	Content        string        `enum:"trafilatura,readability,none" default:"trafilatura" help:"Main-content extractor used for word counts"`
	ExcludeHidden  bool          `help:"Ignore elements without rendered area"`
	NoHeadingLike  bool          `help:"Only collect semantic headings"`
	Sparse         int           `default:"2" help:"Retry pages with fewer headings than this"`
}

// ExtractOptions returns the page extraction options selected by the flags.
func (f RenderFlags) ExtractOptions(locale string, logger *slog.Logger) []extract.Option {
	opts := []extract.Option{
		extract.WithClassifyOptions(serpscope.ClassifyOptions{
			IncludeHidden: !f.ExcludeHidden,
			HeadingLike:   !f.NoHeadingLike,
		}),
		extract.WithSparseThreshold(f.Sparse),
		extract.WithScrollPlan(serpscope.ScrollPlan{
			Steps:  f.ScrollSteps,
			StepPx: f.ScrollStepPx,
			Pause:  extract.DefaultScrollPause,
		}),
		extract.WithPageTimeout(f.Timeout),
		extract.WithExtraWait(f.ExtraWait),
		extract.WithConcurrency(f.Concurrency),
		extract.WithRespectNoindex(f.RespectNoindex),
		extract.WithLocale(locale),
		extract.WithHostPacer(extract.NewHostPacer(f.RateLimit)),
		extract.WithLogger(logger),
	}
	if f.RetryWait > 0 {
		opts = append(opts, extract.WithRetryWait(f.RetryWait))
	}
	switch f.Content {
	case "trafilatura":
		opts = append(opts, extract.WithContentExtractor(trafilatura.NewExtractor()))
	case "readability":
		opts = append(opts, extract.WithContentExtractor(readability.NewExtractor(readability.WithMinWords(readability.DefaultMinWords))))
	}
	return opts
}

// BriefCmd is the "brief" subcommand.
type BriefCmd struct {
	Query    string `arg:"" help:"Search query"`
	Location string `short:"l" required:"" help:"Search location (e.g., \"Japan\" or a city string)"`
	Country  string `help:"Country preset for domain, gl and hl (defaults to the location)"`
	Domain   string `help:"Search engine domain (e.g., google.co.jp)"`
	GL       string `name:"gl" help:"Country code"`
	HL       string `name:"hl" help:"Interface language"`
	LR       string `name:"lr" help:"Result language restriction (e.g., lang_ja)"`
	Num      int    `short:"n" default:"10" help:"Number of results (max 100)"`
	Safe     string `default:"off" enum:"off,active" help:"Safe search"`

	MaxUnique int    `help:"Cap on distinct target pages (defaults to --num)"`
	Policy    string `short:"p" default:"hybrid-lenient" help:"Fusion policy: source-only, rendered-only, hybrid-strict, hybrid-lenient"`
	Promote   bool   `help:"Confirm features seen only through weak signals"`

	VerifySERP     bool   `name:"verify-serp" help:"Render the results page and record its markers"`
	AlwaysProbeAIO bool   `name:"always-probe-aio" help:"Issue the dedicated overview query for English locales too"`
	AIOFallbackHL  string `name:"aio-fallback-hl" default:"en" help:"Overview query language for non-English locales"`
	LLMIntent      bool   `name:"llm-intent" help:"Label intent with Gemini (needs GEMINI_API_KEY)"`
	IntentModel    string `default:"gemini-2.5-flash" help:"Gemini model for intent labeling"`
	SerpAPIKey     string `name:"serpapi-key" env:"SERPAPI_KEY" help:"Results API key"`
	GeminiAPIKey   string `name:"gemini-api-key" env:"GEMINI_API_KEY" help:"Gemini API key"`

	SearchTimeout time.Duration `default:"60s" help:"Results API time budget"`
	AIOTimeout    time.Duration `name:"aio-timeout" default:"45s" help:"Overview query time budget"`

	RenderFlags `embed:""`

	Out     string `short:"o" default:"." type:"path" help:"Output directory for CSV and JSON files"`
	XLSX    string `name:"xlsx" type:"path" help:"Also write a workbook to this path"`
	Metrics string `type:"path" help:"Also write a Prometheus textfile to this path (.prom)"`
	NoSave  bool   `help:"Do not store the run in the history database"`
}

// SearchQuery builds the normalized search query from the flags.
func (c *BriefCmd) SearchQuery() serpscope.SearchQuery {
	q := serpscope.SearchQuery{
		Query:    c.Query,
		Location: c.Location,
		Domain:   c.Domain,
		GL:       c.GL,
		HL:       c.HL,
		Num:      c.Num,
		Safe:     c.Safe,
		LR:       c.LR,
	}
	country := c.Country
	if country == "" {
		country = c.Location
	}
	q.Normalize(country)
	return q
}

// HeadingsCmd is the "headings" subcommand.
type HeadingsCmd struct {
	URLs   []string `arg:"" name:"url" help:"Page URLs"`
	Locale string   `default:"en" help:"Browser locale and Accept-Language"`
	JSON   bool     `help:"Print results as JSON"`

	RenderFlags `embed:""`
}

// RunsCmd is the "runs" subcommand.
type RunsCmd struct {
	Limit int `short:"n" default:"20" help:"Maximum runs to list (0 lists all)"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	RunID   string `arg:"" name:"run-id" help:"Run ID"`
	Policy  string `short:"p" help:"Re-fuse under this policy instead of the stored one"`
	Promote string `enum:"stored,on,off" default:"stored" help:"Override signal promotion"`
	Out     string `short:"o" type:"path" help:"Rewrite the CSV and JSON files into this directory"`
	JSON    bool   `help:"Print the report as JSON"`
}
