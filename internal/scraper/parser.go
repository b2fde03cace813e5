package scraper

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"github.com/wealthpath/pricewatch/internal/model"
	"github.com/wealthpath/pricewatch/pkg/currency"
)

// MaxNameLength bounds stored product names, in runes.
const MaxNameLength = 200

const xpathPrefix = "xpath:"

// Snapshot is what a parser could read from one product page.
// A missing price is represented by an invalid Price, never by an error.
type Snapshot struct {
	Price    decimal.NullDecimal `json:"price" swaggertype:"number"`
	Name     string              `json:"name,omitempty"`
	ImageURL string              `json:"imageUrl,omitempty"`
	Currency string              `json:"currency,omitempty"`
}

// HasPrice reports whether the page yielded a usable price.
func (s Snapshot) HasPrice() bool {
	return s.Price.Valid
}

// Parser extracts a Snapshot from raw HTML.
type Parser interface {
	Platform() model.Platform
	Parse(rawHTML string) Snapshot
}

// Registry selects a parser by platform tag. Unknown tags get the generic parser.
type Registry struct {
	parsers map[model.Platform]Parser
	generic Parser
}

// NewRegistry builds the Amazon, Flipkart and generic parsers from cfg.
func NewRegistry(cfg *SelectorConfig) *Registry {
	generic := NewGenericParser(cfg.Generic)
	return &Registry{
		parsers: map[model.Platform]Parser{
			model.PlatformAmazon:   NewAmazonParser(cfg.Amazon, generic),
			model.PlatformFlipkart: NewFlipkartParser(cfg.Flipkart, generic),
			model.PlatformOther:    generic,
		},
		generic: generic,
	}
}

// For returns the parser registered for platform.
func (r *Registry) For(platform model.Platform) Parser {
	if p, ok := r.parsers[platform]; ok {
		return p
	}
	return r.generic
}

var (
	priceNumberPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// ParsePrice strips currency markers, thousands separators and whitespace from text
// and parses the rest. Anything that is not a positive number yields an invalid value.
func ParsePrice(text string) decimal.NullDecimal {
	s := text
	for _, sym := range currency.Symbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = whitespacePattern.ReplaceAllString(s, "")
	s = strings.TrimSuffix(s, ".")

	if !priceNumberPattern.MatchString(s) {
		return decimal.NullDecimal{}
	}

	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// TruncateName collapses whitespace and cuts name to MaxNameLength runes.
func TruncateName(name string) string {
	name = strings.TrimSpace(whitespacePattern.ReplaceAllString(name, " "))
	if utf8.RuneCountInString(name) <= MaxNameLength {
		return name
	}
	return strings.TrimSpace(string([]rune(name)[:MaxNameLength]))
}

// document evaluates CSS and XPath selectors against one parsed page.
type document struct {
	doc  *goquery.Document
	root *html.Node
}

func newDocument(rawHTML string) (*document, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}
	return &document{doc: goquery.NewDocumentFromNode(root), root: root}, nil
}

// values returns every non-empty value matched by sel, in document order.
func (d *document) values(sel Selector) []string {
	var out []string

	if expr, ok := strings.CutPrefix(sel.Query, xpathPrefix); ok {
		nodes, err := htmlquery.QueryAll(d.root, expr)
		if err != nil {
			return nil
		}
		for _, n := range nodes {
			var v string
			if sel.Attr != "" {
				v = htmlquery.SelectAttr(n, sel.Attr)
			} else {
				v = htmlquery.InnerText(n)
			}
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}

	d.doc.Find(sel.Query).Each(func(_ int, s *goquery.Selection) {
		var v string
		if sel.Attr != "" {
			v = s.AttrOr(sel.Attr, "")
		} else {
			v = s.Text()
		}
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	})
	return out
}

// first returns the first non-empty value over the ordered candidates.
func (d *document) first(selectors []Selector) string {
	for _, sel := range selectors {
		if vals := d.values(sel); len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

// firstPrice returns the first candidate value that parses as a price, with its raw text.
func (d *document) firstPrice(selectors []Selector) (decimal.NullDecimal, string) {
	for _, sel := range selectors {
		for _, v := range d.values(sel) {
			if p := ParsePrice(v); p.Valid {
				return p, v
			}
		}
	}
	return decimal.NullDecimal{}, ""
}
