package serpscope

import "context"

// PageResult is the extraction output for one page.
type PageResult struct {
	URL      string   `json:"url"`
	Position int      `json:"position"`
	Meta     PageMeta `json:"meta"`
	Outline  Outline  `json:"headings"`

	// Fingerprint identifies the outline content.
	Fingerprint string `json:"fingerprint"`

	// Frames holds per-frame heading counts in discovery order, followed by
	// the retry pass when one ran. Skipped counts the cross-origin frames
	// that could not be inspected.
	Frames  []FrameStat `json:"frames"`
	Skipped int         `json:"skippedFrames"`

	// Retried reports whether the sparse-result retry ran.
	Retried bool `json:"retried"`

	// WordCount is the word count of the main content, 0 when unknown.
	WordCount int `json:"wordCount,omitempty"`
}

// FrameStat records the headings one extraction pass found in a frame.
type FrameStat struct {
	URL    string        `json:"url"`
	Counts [MaxLevel]int `json:"counts"`
	Retry  bool          `json:"retry,omitempty"`
}

// PageOmission records a page that produced no result.
type PageOmission struct {
	URL      string `json:"url"`
	Position int    `json:"position"`
	Code     string `json:"code"`
	Reason   string `json:"reason"`
}

// ExtractProgress reports progress during page extraction.
type ExtractProgress struct {
	URL       string
	Completed int
	Total     int
	Error     error
}

// ExtractProgressFunc is called as pages are processed.
type ExtractProgressFunc func(ExtractProgress)

// PageExtractor recovers outlines from a set of pages. A page that cannot
// be processed is reported as an omission and never aborts the run.
type PageExtractor interface {
	ExtractAll(ctx context.Context, urls []string, progress ExtractProgressFunc) ([]*PageResult, []PageOmission, error)
}

// HostPacer spaces out page loads that hit the same site.
type HostPacer interface {
	// Wait blocks until host may be loaded again. It fails once ctx is done.
	Wait(ctx context.Context, host string) error
}
