package mappers

import (
	"mealmate/grocery"
	"mealmate/model"
)

// ToGroceryListView は買い物リストと集計結果を画面表示用の構造体にまとめます。
func ToGroceryListView(list *model.GroceryList, recipes []model.Recipe) model.GroceryListView {
	if list == nil {
		return model.GroceryListView{}
	}
	report := grocery.AggregateReport(
		ToGrocerySource(recipes),
		grocery.NewIDSet(list.RecipeIDs...),
		grocery.NewIDSet(list.CheckedIDs...),
	)
	return model.GroceryListView{
		GroceryList: *list,
		Entries:     nonNilEntries(report.Entries),
		Anomalies:   report.Anomalies,
	}
}

func nonNilEntries(es []grocery.Entry) []grocery.Entry {
	if es == nil {
		return []grocery.Entry{}
	}
	return es
}
