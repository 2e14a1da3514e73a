package grocery

import (
	"regexp"
	"strings"
)

// AnomalyKind names a data-quality problem in an ingredient reference.
type AnomalyKind string

const (
	AnomalyEmptyName        AnomalyKind = "empty_name"
	AnomalyEmptyOriginID    AnomalyKind = "empty_origin_id"
	AnomalyNonNumericAmount AnomalyKind = "non_numeric_amount"
)

// Anomaly reports a participating reference that looks malformed. Anomalous
// references are still aggregated.
type Anomaly struct {
	RecipeID string      `json:"recipeId"`
	OriginID string      `json:"originId"`
	Name     string      `json:"name"`
	Kind     AnomalyKind `json:"kind"`
}

// Report is the aggregate result together with its diagnostics.
type Report struct {
	Entries       []Entry   `json:"entries"`
	Anomalies     []Anomaly `json:"anomalies"`
	Participating int       `json:"participating"`
}

// AggregateReport is Aggregate plus a list of anomalous references.
func AggregateReport(recipes []Recipe, selected, checked IDSet) Report {
	anomalies := []Anomaly{}
	entries, n := aggregate(recipes, selected, checked, func(recipeID string, ref IngredientRef) {
		report := func(kind AnomalyKind) {
			anomalies = append(anomalies, Anomaly{RecipeID: recipeID, OriginID: ref.OriginID, Name: ref.Name, Kind: kind})
		}
		if NormalizeKey(ref.Name) == "" {
			report(AnomalyEmptyName)
		}
		if strings.TrimSpace(ref.OriginID) == "" {
			report(AnomalyEmptyOriginID)
		}
		if !IsNumericAmount(ref.Amount) {
			report(AnomalyNonNumericAmount)
		}
	})
	return Report{Entries: entries, Anomalies: anomalies, Participating: n}
}

var numericAmount = regexp.MustCompile(`^(\d+(\.\d+)?|\.\d+|\d+/\d+|\d+\s+\d+/\d+|\d*\s*[¼½¾⅓⅔⅛⅜⅝⅞])(\s*-\s*(\d+(\.\d+)?|\d+/\d+))?$`)

// IsNumericAmount reports whether amount reads as a quantity: integers,
// decimals, fractions ("1/2"), mixed numbers ("1 1/2"), vulgar fractions
// ("½", "1½") and ranges ("2-3"). An empty amount is not numeric.
func IsNumericAmount(amount string) bool {
	return numericAmount.MatchString(strings.TrimSpace(amount))
}
