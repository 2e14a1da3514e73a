package grocery

import "strings"

// QuantitySeparator joins the quantities of one entry for display.
const QuantitySeparator = " + "

// String renders q as "amount unit", dropping the unit when it is empty.
func (q Quantity) String() string {
	return strings.TrimSpace(strings.TrimSpace(q.Amount) + " " + strings.TrimSpace(q.Unit))
}

// FormatQuantities renders quantities as e.g. "2 cups + 1 cup".
func FormatQuantities(qs []Quantity) string {
	parts := make([]string, 0, len(qs))
	for _, q := range qs {
		if s := q.String(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, QuantitySeparator)
}

// Label renders the entry as e.g. "Tomato (2 cups + 1 cup)".
func (e Entry) Label() string {
	q := FormatQuantities(e.Quantities)
	if q == "" {
		return e.DisplayName
	}
	return e.DisplayName + " (" + q + ")"
}
