package serpscope

import "fmt"

// HeadingTable is the tabular form of page outlines: one row per page with
// the URL, meta title, meta description and one column per heading slot.
// Levels get as many columns as the most populated page needs.
type HeadingTable struct {
	Header  []string
	Rows    [][]string
	MaxCols [MaxLevel]int
}

// NewHeadingTable lays out pages in order.
func NewHeadingTable(pages []*PageResult) HeadingTable {
	var t HeadingTable
	for _, p := range pages {
		for i, n := range p.Outline.Counts() {
			t.MaxCols[i] = max(t.MaxCols[i], n)
		}
	}

	t.Header = []string{"URL", "MetaTitle", "MetaDescription"}
	for level := 1; level <= MaxLevel; level++ {
		for i := 1; i <= t.MaxCols[level-1]; i++ {
			t.Header = append(t.Header, fmt.Sprintf("H%d-%d", level, i))
		}
	}

	t.Rows = make([][]string, 0, len(pages))
	for _, p := range pages {
		row := make([]string, 0, len(t.Header))
		row = append(row, p.URL, p.Meta.Title, p.Meta.Description)
		for level := 1; level <= MaxLevel; level++ {
			texts := p.Outline.Headings(level)
			for i := range t.MaxCols[level-1] {
				var cell string
				if i < len(texts) {
					cell = texts[i]
				}
				row = append(row, cell)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
