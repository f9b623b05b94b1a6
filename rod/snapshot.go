package rod

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/fwojciec/serpscope"
)

var (
	//go:embed snapshot.js
	snapshotJS string

	//go:embed meta.js
	metaJS string

	//go:embed consent.js
	consentJS string
)

// snapshot is the decoded output of snapshot.js.
type snapshot struct {
	Frames []*frame `json:"frames"`
}

// frame is one document of a snapshot.
type frame struct {
	Href       string `json:"url"`
	Accessible bool   `json:"accessible"`
	Doc        *node  `json:"doc,omitempty"`
}

var _ serpscope.Frame = (*frame)(nil)

func (f *frame) URL() string { return f.Href }

func (f *frame) Document() (serpscope.Node, bool) {
	if !f.Accessible || f.Doc == nil {
		return nil, false
	}
	return f.Doc, true
}

// node is a detached copy of a rendered node. Attributes are limited to the
// ones heading classification reads, and text is only captured for elements
// that can classify as headings.
type node struct {
	K        serpscope.NodeKind `json:"k"`
	T        string             `json:"t,omitempty"`
	A        map[string]string  `json:"a,omitempty"`
	C        []*node            `json:"c,omitempty"`
	S        *node              `json:"s,omitempty"`
	St       style              `json:"st"`
	Rendered string             `json:"rt,omitempty"`
	HasText  bool               `json:"r,omitempty"`
	Content  string             `json:"tc,omitempty"`
}

type style struct {
	FontWeight string  `json:"fw"`
	FontSize   float64 `json:"fs"`
	Display    string  `json:"d"`
	Visibility string  `json:"v"`
	Width      float64 `json:"w"`
	Height     float64 `json:"h"`
}

var _ serpscope.Node = (*node)(nil)

func (n *node) Kind() serpscope.NodeKind { return n.K }

func (n *node) Tag() string { return n.T }

func (n *node) Attr(name string) (string, bool) {
	v, ok := n.A[name]
	return v, ok
}

func (n *node) Children() []serpscope.Node {
	children := make([]serpscope.Node, len(n.C))
	for i, c := range n.C {
		children[i] = c
	}
	return children
}

func (n *node) ShadowRoot() (serpscope.Node, bool) {
	if n.S == nil {
		return nil, false
	}
	return n.S, true
}

func (n *node) Style() serpscope.Style {
	return serpscope.Style{
		FontWeight: n.St.FontWeight,
		FontSize:   n.St.FontSize,
		Display:    n.St.Display,
		Visibility: n.St.Visibility,
		Width:      n.St.Width,
		Height:     n.St.Height,
	}
}

func (n *node) RenderedText() (string, bool) { return n.Rendered, n.HasText }

func (n *node) TextContent() string { return n.Content }

// DecodeSnapshot decodes the JSON produced by the page snapshot script into
// frames, the primary frame first.
func DecodeSnapshot(data []byte) ([]serpscope.Frame, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if len(snap.Frames) == 0 {
		return nil, serpscope.Errorf(serpscope.EINTERNAL, "snapshot has no primary frame")
	}
	frames := make([]serpscope.Frame, len(snap.Frames))
	for i, f := range snap.Frames {
		frames[i] = f
	}
	return frames, nil
}

// DecodeMeta decodes the JSON produced by the metadata script.
func DecodeMeta(data []byte) (*serpscope.PageMeta, error) {
	var meta serpscope.PageMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decoding page metadata: %w", err)
	}
	return &meta, nil
}
