package clipper

import (
	"strings"

	"mealmate/grocery"
	"mealmate/units"
)

// ParseIngredientLine splits a free-text ingredient line such as
// "1 1/2 cups flour, sifted" into amount, unit and name. Parts that cannot
// be recognised are left in the name.
func ParseIngredientLine(line string) (amount, unit, name string) {
	fields := strings.Fields(line)

	n := 0
	for i := 1; i <= len(fields) && i <= 3; i++ {
		if grocery.IsNumericAmount(strings.Join(fields[:i], " ")) {
			n = i
		}
	}
	amount = strings.Join(fields[:n], " ")
	rest := fields[n:]

	if amount != "" {
		switch {
		case len(rest) >= 2 && units.IsUnit(rest[0]+" "+rest[1]):
			unit = rest[0] + " " + rest[1]
			rest = rest[2:]
		case len(rest) >= 1 && units.IsUnit(rest[0]):
			unit = rest[0]
			rest = rest[1:]
		}
	}

	name = strings.TrimSpace(strings.Join(rest, " "))
	name = strings.TrimPrefix(name, "of ")
	if name == "" {
		name = strings.TrimSpace(line)
		amount, unit = "", ""
	}
	return amount, unit, name
}
