package serpscope

import (
	"context"
	"strings"
	"time"
)

// DefaultUserAgent is the desktop Chrome user agent sent when none is
// configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// RenderOptions configures a rendering session.
type RenderOptions struct {
	// Locale is the browser locale and Accept-Language value (e.g., "ja").
	Locale string
	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string
	// UserAgent overrides the browser user agent when set.
	UserAgent string
	// DismissConsent clicks through a cookie consent dialog when one appears.
	DismissConsent bool
}

// ScrollPlan describes a paced scroll sequence used to materialize lazily
// loaded content.
type ScrollPlan struct {
	Steps  int
	StepPx int
	// Pause is the delay after each step.
	Pause time.Duration
	// TurnAfterPx reverses the scroll direction once the offset exceeds it.
	// Zero scrolls in one direction only.
	TurnAfterPx int
}

// Renderer renders URLs into sessions that allow inspection of the resulting
// document tree.
type Renderer interface {
	// Render navigates to url and waits for the load event. It returns an
	// error when navigation fails or the context deadline passes. The
	// returned Session must be closed by the caller.
	Render(ctx context.Context, url string, opts RenderOptions) (Session, error)
}

// Session is a rendered page. A Session owns OS-level rendering resources
// and must be released with Close on every exit path.
type Session interface {
	// URL returns the URL the session navigated to.
	URL() string

	// Status returns the HTTP status of the main document, or 0 if unknown.
	Status() int

	// Settle waits until network activity goes quiet or timeout passes.
	Settle(ctx context.Context, timeout time.Duration) error

	// Scroll runs the scroll plan against the primary frame.
	Scroll(ctx context.Context, plan ScrollPlan) error

	// ScrollToTop returns the primary frame to the top of the document.
	ScrollToTop(ctx context.Context) error

	// Frames snapshots the page. The primary frame comes first, embedded
	// frames follow in discovery order.
	Frames(ctx context.Context) ([]Frame, error)

	// Meta returns the page metadata of the primary frame.
	Meta(ctx context.Context) (*PageMeta, error)

	// HTML returns the serialized document of the primary frame.
	HTML(ctx context.Context) (string, error)

	// VisibleText returns the rendered text of the primary frame's body.
	VisibleText(ctx context.Context) (string, error)

	// Requests returns the URLs of every request observed so far.
	Requests() []string

	// Close releases the session.
	Close() error
}

// Frame is one document of a rendered page.
type Frame interface {
	// URL returns the frame's document URL.
	URL() string

	// Document returns the frame's document root. It returns false when the
	// host page is not permitted to inspect the frame (cross-origin).
	Document() (Node, bool)
}

// PageMeta holds document-level metadata.
type PageMeta struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Robots      []string `json:"robots,omitempty"`
}

// NoIndex reports whether any robots directive forbids indexing.
func (m *PageMeta) NoIndex() bool {
	if m == nil {
		return false
	}
	for _, directive := range m.Robots {
		lower := strings.ToLower(directive)
		if strings.Contains(lower, "noindex") || strings.Contains(lower, "none") {
			return true
		}
	}
	return false
}

// RawDocument is an undecoded HTTP response for a document.
type RawDocument struct {
	URL    string
	Status int
	Body   string
}

// DocumentFetcher retrieves documents over plain HTTP without rendering.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, url string, headers map[string]string) (*RawDocument, error)
}
