package scraper

import (
	"regexp"
	"strings"

	"github.com/wealthpath/pricewatch/internal/model"
)

// Classification is the platform tag derived from a product URL.
type Classification struct {
	Platform     model.Platform `json:"platform"`
	PlatformIcon string         `json:"platformIcon"`
	Identifier   *string        `json:"identifier"`
}

var amazonIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/dp/([A-Z0-9]{10})`),
	regexp.MustCompile(`(?i)/gp/product/([A-Z0-9]{10})`),
	regexp.MustCompile(`(?i)/ASIN/([A-Z0-9]{10})`),
	regexp.MustCompile(`(?i)/([A-Z0-9]{10})(?:[/?#]|$)`),
}

var platformIcons = map[model.Platform]string{
	model.PlatformAmazon:   "amazon",
	model.PlatformFlipkart: "flipkart",
	model.PlatformOther:    "globe",
}

// Classify tags a URL with its marketplace. It never fails; unknown hosts are Other.
func Classify(rawURL string) Classification {
	lower := strings.ToLower(rawURL)

	switch {
	case strings.Contains(lower, "amazon.") || strings.Contains(lower, "amzn."):
		return Classification{
			Platform:     model.PlatformAmazon,
			PlatformIcon: platformIcons[model.PlatformAmazon],
			Identifier:   amazonID(rawURL),
		}
	case strings.Contains(lower, "flipkart.com") || strings.Contains(lower, "fkrt.it"):
		return Classification{
			Platform:     model.PlatformFlipkart,
			PlatformIcon: platformIcons[model.PlatformFlipkart],
		}
	default:
		return Classification{
			Platform:     model.PlatformOther,
			PlatformIcon: platformIcons[model.PlatformOther],
		}
	}
}

// PlatformIcon returns the display icon for a stored platform tag.
func PlatformIcon(p model.Platform) string {
	if icon, ok := platformIcons[p]; ok {
		return icon
	}
	return platformIcons[model.PlatformOther]
}

func amazonID(rawURL string) *string {
	for _, re := range amazonIDPatterns {
		if m := re.FindStringSubmatch(rawURL); len(m) == 2 {
			id := strings.ToUpper(m[1])
			return &id
		}
	}
	return nil
}
