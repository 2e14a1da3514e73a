package mappers

import (
	"strconv"

	"mealmate/grocery"
	"mealmate/model"
	"mealmate/parsers"
	"mealmate/units"
)

// ToGrocerySource は保存済みレシピを集計用のレコードに変換します。
//
// 材料名はそのまま渡します（正規化は grocery 側の責務）。
// ID の無い古い材料行には "<recipeId>#<position>" を割り当てるため、
// チェック状態の追跡は常に可能です。
func ToGrocerySource(recipes []model.Recipe) []grocery.Recipe {
	out := make([]grocery.Recipe, 0, len(recipes))
	for _, r := range recipes {
		refs := make([]grocery.IngredientRef, 0, len(r.Ingredients))
		for i, ing := range r.Ingredients {
			refs = append(refs, grocery.IngredientRef{
				OriginID: OriginID(r.ID, ing, i),
				Name:     ing.Name,
				Amount:   string(ing.Amount),
				Unit:     ing.Unit,
			})
		}
		out = append(out, grocery.Recipe{ID: r.ID, Ingredients: refs})
	}
	return out
}

// OriginID returns the id an ingredient line is tracked by. index is the
// line's place in the recipe and is used only when the line has no id.
func OriginID(recipeID string, ing model.Ingredient, index int) string {
	if ing.ID != "" {
		return ing.ID
	}
	pos := ing.Position
	if pos == 0 {
		pos = index
	}
	return recipeID + "#" + strconv.Itoa(pos)
}

// ToIngredients は CSV から読み込んだ行を材料モデルに変換します。
// 単位は単位表の正式名に揃えます（"Tablespoons" → "tbsp"）。未知の単位はそのままです。
func ToIngredients(records []parsers.IngredientCSVRecord) []model.Ingredient {
	out := make([]model.Ingredient, 0, len(records))
	for _, rec := range records {
		out = append(out, model.Ingredient{
			ID:     rec.ID,
			Name:   rec.Name,
			Amount: model.Amount(rec.Amount),
			Unit:   units.ResolveName(rec.Unit),
			Type:   rec.Type,
		})
	}
	return out
}
