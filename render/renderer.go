package render

import (
	"fmt"
	"html"
	"strings"

	"mealmate/grocery"
	"mealmate/model"
)

// GroceryChecklistHTML は買い物リストのチェックリストを HTML 文字列で生成します。
// チェック済みの行は取り消し線で表示されます。
func GroceryChecklistHTML(list *model.GroceryList, entries []grocery.Entry) string {
	var sb strings.Builder

	title := "Grocery list"
	if list != nil && list.Name != "" {
		title = list.Name
	}

	sb.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>`)
	sb.WriteString(html.EscapeString(title))
	sb.WriteString(`</title>
<style>
    body { font-family: sans-serif; margin: 2rem; }
    ul.grocery { list-style: none; padding: 0; }
    ul.grocery li { padding: .25rem 0; }
    li.checked { text-decoration: line-through; color: #888; }
    .qty { color: #555; }
</style>
</head>
<body>
`)
	sb.WriteString(fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(title)))

	if len(entries) == 0 {
		sb.WriteString(`<p class="empty">No ingredients. Select a recipe to start the list.</p>`)
	} else {
		pending := 0
		for _, e := range entries {
			if !e.Checked {
				pending++
			}
		}
		sb.WriteString(fmt.Sprintf(`<p class="summary">%d of %d remaining</p>`+"\n", pending, len(entries)))
		sb.WriteString(`<ul class="grocery">` + "\n")
		for _, e := range entries {
			class := "pending"
			mark := "&#9744;"
			if e.Checked {
				class = "checked"
				mark = "&#9745;"
			}
			sb.WriteString(fmt.Sprintf(`<li class="%s" data-key="%s" data-origins="%s">%s %s`,
				class,
				html.EscapeString(e.NormalizedKey),
				html.EscapeString(strings.Join(e.OriginIDs, ",")),
				mark,
				html.EscapeString(e.DisplayName),
			))
			if q := grocery.FormatQuantities(e.Quantities); q != "" {
				sb.WriteString(fmt.Sprintf(` <span class="qty">(%s)</span>`, html.EscapeString(q)))
			}
			sb.WriteString("</li>\n")
		}
		sb.WriteString("</ul>\n")
	}

	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}
