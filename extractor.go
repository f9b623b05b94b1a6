package serpscope

// ContentResult holds the main content extracted from an HTML page.
type ContentResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// Text is the main content as plain text with boilerplate removed.
	Text string
}

// ContentExtractor extracts main content from HTML pages, removing boilerplate.
type ContentExtractor interface {
	Extract(html string) (*ContentResult, error)
}
