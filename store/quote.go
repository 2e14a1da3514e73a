package store

import (
	"fmt"
	"math"

	"mealmate/model"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BuildQuote は商品の小計・税・合計を計算します。金額はセント単位で丸めてから合算します。
func BuildQuote(items []model.StoreItem, taxRate float64, currencyCode string) (model.Quote, error) {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return model.Quote{}, fmt.Errorf("unknown currency %q: %w", currencyCode, err)
	}

	var subtotalCents int64
	for _, it := range items {
		subtotalCents += toCents(it.Cost)
	}
	taxCents := int64(math.Round(float64(subtotalCents) * taxRate))
	totalCents := subtotalCents + taxCents

	p := message.NewPrinter(language.English)
	format := func(cents int64) string {
		return p.Sprint(currency.Symbol(unit.Amount(fromCents(cents))))
	}

	if items == nil {
		items = []model.StoreItem{}
	}
	return model.Quote{
		Items:             items,
		Subtotal:          fromCents(subtotalCents),
		TaxRate:           taxRate,
		Tax:               fromCents(taxCents),
		Total:             fromCents(totalCents),
		FormattedSubtotal: format(subtotalCents),
		FormattedTax:      format(taxCents),
		FormattedTotal:    format(totalCents),
	}, nil
}

func toCents(v float64) int64 { return int64(math.Round(v * 100)) }

func fromCents(c int64) float64 { return float64(c) / 100 }
