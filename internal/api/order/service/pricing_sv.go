package orderService

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"SalmaVoice/pkg/catalog"
	"SalmaVoice/pkg/extract"
)

func attributesFromPayload(payload map[string]interface{}) catalog.Attributes {
	name, category, weight, cardamom, grind, cupType, size := extract.ProductAttributes(payload)
	return catalog.Attributes{
		ProductName: name,
		Category:    category,
		Weight:      weight,
		Cardamom:    cardamom,
		Grind:       grind,
		CupType:     cupType,
		Size:        size,
	}
}

func displayName(attrs catalog.Attributes) string {
	return catalog.DisplayName(attrs)
}

func imageFor(attrs catalog.Attributes) string {
	return catalog.Image(attrs)
}

// resolvePrice picks the line price in strict priority order: an explicit
// unit_price in the payload wins verbatim, then the catalog, then the
// weight-tier fallback. The fallback is total, so every item gets a price.
func (s *orderService) resolvePrice(payload map[string]interface{}, attrs catalog.Attributes) decimal.Decimal {
	for _, key := range []string{"unit_price", "price"} {
		raw := extract.StringValue(payload, key)
		if raw == "" {
			continue
		}
		p, err := decimal.NewFromString(raw)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"value": raw,
				"error": err.Error(),
			}).Warn("[OrderService.resolvePrice] unparseable explicit price")
			continue
		}
		return p
	}

	if p, ok := catalog.Lookup(attrs); ok {
		return p
	}

	return catalog.DefaultPrice(attrs)
}
