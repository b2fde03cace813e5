package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/wealthpath/pricewatch/internal/model"
	"github.com/wealthpath/pricewatch/pkg/currency"
)

// symbolPricePattern matches a currency-marker-prefixed amount such as "₹1,299" or "Rs. 450.50".
var symbolPricePattern = regexp.MustCompile(`(?:₹|Rs\.?|INR|\$|€|£)\s*\d[\d,]*(?:\.\d+)?`)

// priceHintSelector finds elements whose class, id or itemprop mentions a price.
const priceHintSelector = `[class*="price"], [class*="Price"], [id*="price"], [id*="Price"], [itemprop*="price"]`

// GenericParser reads structured metadata and common price markup from any shop page.
type GenericParser struct {
	selectors PlatformSelectors
}

func NewGenericParser(selectors PlatformSelectors) *GenericParser {
	return &GenericParser{selectors: selectors}
}

func (p *GenericParser) Platform() model.Platform {
	return model.PlatformOther
}

func (p *GenericParser) Parse(rawHTML string) Snapshot {
	doc, err := newDocument(rawHTML)
	if err != nil {
		return Snapshot{}
	}
	return p.parseDocument(doc)
}

func (p *GenericParser) parseDocument(doc *document) Snapshot {
	price, _ := doc.firstPrice(p.selectors.Price)
	if !price.Valid {
		price = scanPriceHints(doc)
	}

	code := currency.DefaultCurrency
	if raw := doc.first(p.selectors.Currency); raw != "" {
		code = currency.Normalize(raw)
	}

	return Snapshot{
		Price:    price,
		Name:     TruncateName(doc.first(p.selectors.Name)),
		ImageURL: doc.first(p.selectors.Image),
		Currency: string(code),
	}
}

// scanPriceHints returns the first symbol-prefixed amount inside a price-like element.
func scanPriceHints(doc *document) decimal.NullDecimal {
	var found decimal.NullDecimal
	doc.doc.Find(priceHintSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if m := symbolPricePattern.FindString(text); m != "" {
			if p := ParsePrice(m); p.Valid {
				found = p
				return false
			}
		}
		return true
	})
	return found
}
