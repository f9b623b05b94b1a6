// Package serpscope builds SEO content briefs from a search-results listing.
// It renders the ranking pages, recovers each page's heading outline (even
// when headings are styled rather than marked up), and fuses search-result
// feature signals from a results API and a rendered results page into
// confidence-rated feature statuses.
//
// This package contains domain types, interfaces and the pure extraction and
// fusion logic, following Ben Johnson's Standard Package Layout.
// Implementations live in subdirectories named after their primary
// dependency (e.g., rod/, goquery/, sqlite/).
package serpscope
