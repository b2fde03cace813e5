package scraper

import (
	"github.com/wealthpath/pricewatch/internal/model"
	"github.com/wealthpath/pricewatch/pkg/currency"
)

// AmazonParser reads Amazon product pages.
type AmazonParser struct {
	selectors PlatformSelectors
	generic   *GenericParser
}

func NewAmazonParser(selectors PlatformSelectors, generic *GenericParser) *AmazonParser {
	return &AmazonParser{selectors: selectors, generic: generic}
}

func (p *AmazonParser) Platform() model.Platform {
	return model.PlatformAmazon
}

// Parse tries the Amazon price candidates in order and infers the currency from the
// matched price text. When none match, the generic parser's result fills the gaps.
func (p *AmazonParser) Parse(rawHTML string) Snapshot {
	doc, err := newDocument(rawHTML)
	if err != nil {
		return Snapshot{}
	}

	price, rawPrice := doc.firstPrice(p.selectors.Price)
	snap := Snapshot{
		Price:    price,
		Name:     TruncateName(doc.first(p.selectors.Name)),
		ImageURL: doc.first(p.selectors.Image),
		Currency: string(currency.FromSymbol(rawPrice)),
	}

	if !snap.Price.Valid && p.generic != nil {
		fallback := p.generic.parseDocument(doc)
		snap.Price = fallback.Price
		if fallback.Price.Valid {
			snap.Currency = fallback.Currency
		}
		fillMissing(&snap, fallback)
	}

	return snap
}

func fillMissing(dst *Snapshot, src Snapshot) {
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.ImageURL == "" {
		dst.ImageURL = src.ImageURL
	}
}
