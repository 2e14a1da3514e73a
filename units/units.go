package units

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"mealmate/parsers"
)

// builtin maps lower-case unit spellings to their canonical name.
var builtin = map[string]string{
	"cup": "cup", "cups": "cup", "c": "cup",
	"tablespoon": "tbsp", "tablespoons": "tbsp", "tbsp": "tbsp", "tbs": "tbsp", "tbl": "tbsp",
	"teaspoon": "tsp", "teaspoons": "tsp", "tsp": "tsp",
	"gram": "g", "grams": "g", "g": "g", "gr": "g",
	"kilogram": "kg", "kilograms": "kg", "kg": "kg",
	"milligram": "mg", "milligrams": "mg", "mg": "mg",
	"ounce": "oz", "ounces": "oz", "oz": "oz",
	"pound": "lb", "pounds": "lb", "lb": "lb", "lbs": "lb",
	"liter": "l", "liters": "l", "litre": "l", "litres": "l", "l": "l",
	"milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml", "ml": "ml",
	"pint": "pint", "pints": "pint", "pt": "pint",
	"quart": "quart", "quarts": "quart", "qt": "quart",
	"gallon": "gallon", "gallons": "gallon", "gal": "gallon",
	"fl oz": "fl oz", "fluid ounce": "fl oz", "fluid ounces": "fl oz",
	"pinch": "pinch", "pinches": "pinch",
	"dash": "dash", "dashes": "dash",
	"clove": "clove", "cloves": "clove",
	"can": "can", "cans": "can",
	"slice": "slice", "slices": "slice",
	"stick": "stick", "sticks": "stick",
	"bunch": "bunch", "bunches": "bunch",
	"head": "head", "heads": "head",
	"package": "package", "packages": "package", "pkg": "package",
	"sprig": "sprig", "sprigs": "sprig",
	"piece": "piece", "pieces": "piece", "pc": "piece", "pcs": "piece",
}

var (
	mu          sync.RWMutex
	internalMap = copyMap(builtin)
)

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// LoadUnitsFile は "alias,name" 形式の CSV を読み込み、組み込みの単位表に追加します。
// charset が空なら UTF-8 として読みます。戻り値は読み込んだ別名の数です。
func LoadUnitsFile(path, charset string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("LoadUnitsFile: open %s: %w", path, err)
	}
	defer file.Close()

	decoded, err := parsers.Decode(file, charset)
	if err != nil {
		return 0, fmt.Errorf("LoadUnitsFile: %w", err)
	}
	reader := csv.NewReader(parsers.SkipBOM(decoded))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	m := copyMap(builtin)
	loaded := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("LoadUnitsFile: read %s: %w", path, err)
		}
		if len(record) < 2 {
			continue
		}
		alias := strings.ToLower(strings.TrimSpace(record[0]))
		name := strings.TrimSpace(record[1])
		if alias == "" || name == "" {
			continue
		}
		m[alias] = name
		loaded++
	}

	mu.Lock()
	internalMap = m
	mu.Unlock()
	return loaded, nil
}

// Reset は組み込みの単位表に戻します。
func Reset() {
	mu.Lock()
	internalMap = copyMap(builtin)
	mu.Unlock()
}

// ResolveName returns the canonical name of unit, or unit itself when it is
// not known.
func ResolveName(unit string) string {
	mu.RLock()
	defer mu.RUnlock()
	if name, ok := internalMap[normalize(unit)]; ok {
		return name
	}
	return unit
}

// IsUnit reports whether token is a known unit spelling.
func IsUnit(token string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := internalMap[normalize(token)]
	return ok
}

func normalize(s string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
}
