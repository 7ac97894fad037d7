package layout

import "github.com/smallbiznis/tradebook/internal/invoice/document"

type OpKind string

const (
	OpText  OpKind = "text"
	OpRect  OpKind = "rect"
	OpImage OpKind = "image"
	OpLine  OpKind = "line"
)

// Asset names referenced by image ops.
const (
	AssetBanner = "banner"
	AssetLogo   = "logo"
)

// Tags group ops by document section.
const (
	TagBanner      = "banner"
	TagIssuer      = "issuer"
	TagLogo        = "logo"
	TagTitle       = "title"
	TagMeta        = "meta"
	TagBillTo      = "bill_to"
	TagTableHeader = "table_header"
	TagRow         = "row"
	TagTotals      = "totals"
	TagTerms       = "terms"
	TagDisclaimer  = "disclaimer"
	TagSalesman    = "salesman"
)

type Color struct {
	R, G, B int
}

var (
	ColorDark      = Color{R: 0x1F, G: 0x29, B: 0x37}
	ColorText      = Color{R: 0x11, G: 0x18, B: 0x27}
	ColorMuted     = Color{R: 0x4B, G: 0x55, B: 0x63}
	ColorWhite     = Color{R: 0xFF, G: 0xFF, B: 0xFF}
	ColorBand      = Color{R: 0xF3, G: 0xF4, B: 0xF6}
	ColorSeparator = Color{R: 0xD1, G: 0xD5, B: 0xDB}
)

// Op is a single drawing operation. For text, (X, Y, W, H) is the cell the
// text is aligned in. For lines, (X, Y) to (X+W, Y+H).
type Op struct {
	Kind  OpKind
	Tag   string
	X     float64
	Y     float64
	W     float64
	H     float64
	Text  string
	Font  Font
	Align document.Align
	Color Color
	Asset string
}

// Page is one physical page. Rows counts table body rows placed on it and
// BodyTop is the y of the first of them.
type Page struct {
	Number  int
	Ops     []Op
	Rows    int
	BodyTop float64
}

// OpsTagged returns the ops of the page carrying tag.
func (p Page) OpsTagged(tag string) []Op {
	var out []Op
	for _, op := range p.Ops {
		if op.Tag == tag {
			out = append(out, op)
		}
	}
	return out
}

// Cursor tracks the vertical write position across pages.
type Cursor struct {
	geo   Geometry
	pages []Page
	Y     float64
}

func NewCursor(geo Geometry) *Cursor {
	c := &Cursor{geo: geo}
	c.pages = append(c.pages, Page{Number: 1})
	c.Y = geo.MarginTop
	return c
}

// Fits reports whether a block of height h fits above the footer band.
func (c *Cursor) Fits(h float64) bool {
	return c.Y+h <= c.geo.BodyLimit()
}

// NewPage starts a page and resets the cursor to the top margin.
func (c *Cursor) NewPage() {
	c.pages = append(c.pages, Page{Number: len(c.pages) + 1})
	c.Y = c.geo.MarginTop
}

func (c *Cursor) Add(ops ...Op) {
	last := &c.pages[len(c.pages)-1]
	last.Ops = append(last.Ops, ops...)
}

func (c *Cursor) current() *Page {
	return &c.pages[len(c.pages)-1]
}

func (c *Cursor) Pages() []Page {
	return c.pages
}
