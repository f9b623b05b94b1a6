package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/serpscope"
	"github.com/fwojciec/serpscope/brief"
	"github.com/fwojciec/serpscope/excelize"
	"github.com/fwojciec/serpscope/extract"
	"github.com/fwojciec/serpscope/fs"
	"github.com/fwojciec/serpscope/gemini"
	"github.com/fwojciec/serpscope/goquery"
	serphttp "github.com/fwojciec/serpscope/http"
	"github.com/fwojciec/serpscope/probe"
	"github.com/fwojciec/serpscope/prometheus"
	"github.com/fwojciec/serpscope/rod"
	serpslog "github.com/fwojciec/serpscope/slog"
	"github.com/fwojciec/serpscope/sqlite"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path used when neither --db nor SERPSCOPE_DB is set.
	DBPath string

	// ConfigPaths are JSON files supplying flag defaults.
	ConfigPaths []string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// SearchEndpoint overrides the results API endpoint for end-to-end
	// testing.
	SearchEndpoint string

	closers []func() error
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:      defaultDBPath(),
		ConfigPaths: []string{"~/.serpscope.json"},
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var firstErr error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.closers = nil
	if m.DB != nil {
		if err := m.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.DB = nil
	}
	return firstErr
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("serpscope"),
		kong.Description("Heading outlines and results page features for search queries."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Configuration(kong.JSON, m.ConfigPaths...),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'serpscope --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd = strings.Fields(kongCtx.Command())[0]

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	defer m.Close()

	if cmd != "headings" && !(cmd == "brief" && cli.Brief.NoSave) {
		path := m.DBPath
		if cli.DB != "" {
			path = cli.DB
		}
		m.DB = sqlite.NewDB(path)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintf(stderr, "Hint: Set SERPSCOPE_DB to use a different database path\n")
			return fmt.Errorf("failed to open database at %q: %w", path, err)
		}
		deps.Runs = sqlite.NewRunStore(m.DB)
	}

	switch cmd {
	case "brief":
		if err := m.wireBrief(ctx, &cli.Brief, deps); err != nil {
			return err
		}
	case "headings":
		renderer, err := m.renderer(cli.Headings.RenderFlags, deps)
		if err != nil {
			return err
		}
		deps.Pages = aggregator(renderer, cli.Headings.RenderFlags, cli.Headings.Locale, deps.Logger)
	}

	return kongCtx.Run(deps)
}

// wireBrief assembles the brief pipeline from the command flags.
func (m *Main) wireBrief(ctx context.Context, c *BriefCmd, deps *Dependencies) error {
	if c.SerpAPIKey == "" {
		fmt.Fprintln(deps.Stderr, "SERPAPI_KEY environment variable not set. Get an API key at https://serpapi.com/manage-api-key")
		return serpscope.Errorf(serpscope.EINVALID, "SERPAPI_KEY not set")
	}
	rec, err := c.Reconciler()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", serpscope.ErrorMessage(err))
		return err
	}

	searchOpts := []serphttp.SearchOption{
		serphttp.WithSearchTimeout(c.SearchTimeout),
		serphttp.WithOverviewTimeout(c.AIOTimeout),
	}
	if m.SearchEndpoint != "" {
		searchOpts = append(searchOpts, serphttp.WithEndpoint(m.SearchEndpoint))
	}
	search := serpslog.NewLoggingSearchClient(serphttp.NewSearchClient(c.SerpAPIKey, searchOpts...), deps.Logger)

	renderer, err := m.renderer(c.RenderFlags, deps)
	if err != nil {
		return err
	}
	q := c.SearchQuery()
	pages := aggregator(renderer, c.RenderFlags, q.HL, deps.Logger)

	proberOpts := c.ProbeOptions(deps.Logger)
	if c.VerifySERP {
		detector, err := goquery.NewDetector()
		if err != nil {
			return fmt.Errorf("failed to compile markers: %w", err)
		}
		proberOpts = append(proberOpts, probe.WithRenderedPage(renderer, detector))
	}

	writers := []serpscope.ReportWriter{
		serpslog.NewLoggingReportWriter(fs.NewWriter(c.Out), "files", deps.Logger),
	}
	if c.XLSX != "" {
		writers = append(writers, serpslog.NewLoggingReportWriter(excelize.NewWriter(c.XLSX), "xlsx", deps.Logger))
	}
	if c.Metrics != "" {
		writers = append(writers, serpslog.NewLoggingReportWriter(prometheus.NewTextfileWriter(c.Metrics), "metrics", deps.Logger))
	}

	opts := []brief.Option{
		brief.WithReconciler(rec),
		brief.WithMaxUnique(c.MaxUnique),
		brief.WithReportWriters(writers...),
		brief.WithLogger(deps.Logger),
	}
	if deps.Runs != nil {
		opts = append(opts, brief.WithRunStore(deps.Runs))
	}

	if c.LLMIntent {
		if c.GeminiAPIKey == "" {
			fmt.Fprintln(deps.Stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
			return serpscope.Errorf(serpscope.EINVALID, "GEMINI_API_KEY not set")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		labeler := gemini.NewIntentLabeler(client, gemini.WithModel(c.IntentModel))
		opts = append(opts, brief.WithIntentLabeler(serpslog.NewLoggingIntentLabeler(labeler, deps.Logger)))
	}

	deps.Briefs = brief.NewBuilder(search, pages, probe.NewProber(search, proberOpts...), opts...)
	return nil
}

// renderer starts the page renderer selected by the flags.
func (m *Main) renderer(f RenderFlags, deps *Dependencies) (serpscope.Renderer, error) {
	var r serpscope.Renderer
	switch f.Renderer {
	case "http":
		r = goquery.NewRenderer(serphttp.NewFetcher(serphttp.WithTimeout(f.Timeout)))
	default:
		opts := []rod.ManagerOption{
			rod.WithMaxPages(f.RecycleAfter),
			rod.WithHeadless(!f.Headful),
		}
		if f.BrowserBin != "" {
			opts = append(opts, rod.WithBrowserBin(f.BrowserBin))
		}
		manager, err := rod.NewBrowserManager(opts...)
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed, or use --renderer=http")
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
		m.closers = append(m.closers, manager.Close)
		r = rod.NewRenderer(manager)
	}
	return serpslog.NewLoggingRenderer(r, deps.Logger), nil
}

// aggregator builds the page extractor from the flags.
func aggregator(r serpscope.Renderer, f RenderFlags, locale string, logger *slog.Logger) *extract.Aggregator {
	return extract.NewAggregator(r, f.ExtractOptions(locale, logger)...)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "serpscope.db"
	}
	dir := filepath.Join(home, ".serpscope")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "runs.db")
}
