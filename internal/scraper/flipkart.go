package scraper

import (
	"github.com/wealthpath/pricewatch/internal/model"
	"github.com/wealthpath/pricewatch/pkg/currency"
)

// FlipkartParser reads Flipkart product pages. Flipkart only lists INR prices.
type FlipkartParser struct {
	selectors PlatformSelectors
	generic   *GenericParser
}

func NewFlipkartParser(selectors PlatformSelectors, generic *GenericParser) *FlipkartParser {
	return &FlipkartParser{selectors: selectors, generic: generic}
}

func (p *FlipkartParser) Platform() model.Platform {
	return model.PlatformFlipkart
}

func (p *FlipkartParser) Parse(rawHTML string) Snapshot {
	doc, err := newDocument(rawHTML)
	if err != nil {
		return Snapshot{}
	}

	price, _ := doc.firstPrice(p.selectors.Price)
	snap := Snapshot{
		Price:    price,
		Name:     TruncateName(doc.first(p.selectors.Name)),
		ImageURL: doc.first(p.selectors.Image),
		Currency: string(currency.INR),
	}

	if !snap.Price.Valid && p.generic != nil {
		fallback := p.generic.parseDocument(doc)
		snap.Price = fallback.Price
		fillMissing(&snap, fallback)
	}

	return snap
}
