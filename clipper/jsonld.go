package clipper

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mealmate/model"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoRecipe is returned when a page carries no schema.org Recipe data.
var ErrNoRecipe = errors.New("no recipe found on page")

// ParseRecipeHTML は HTML 内の schema.org Recipe (JSON-LD) を読み取り、レシピに変換します。
func ParseRecipeHTML(html string) (*model.Recipe, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var node map[string]interface{}
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data interface{}
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &data); err != nil {
			return true
		}
		node = findRecipeNode(data)
		return node == nil
	})
	if node == nil {
		return nil, ErrNoRecipe
	}

	r := &model.Recipe{
		Title:       cleanText(stringValue(node["name"])),
		Description: cleanText(stringValue(node["description"])),
		ImageURL:    imageValue(node["image"]),
	}
	if r.Title == "" {
		r.Title = cleanText(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	}
	if r.Title == "" {
		r.Title = cleanText(doc.Find("title").First().Text())
	}

	for _, line := range stringList(node["recipeIngredient"]) {
		if line = cleanText(line); line == "" {
			continue
		}
		amount, unit, name := ParseIngredientLine(line)
		r.Ingredients = append(r.Ingredients, model.Ingredient{
			Name:   name,
			Amount: model.Amount(amount),
			Unit:   unit,
		})
	}

	for i, text := range instructions(node["recipeInstructions"]) {
		r.Steps = append(r.Steps, model.Step{Number: i + 1, Instruction: text})
	}

	r.Tags = tags(node["keywords"], node["recipeCategory"], node["recipeCuisine"])
	return r, nil
}

// findRecipeNode searches a decoded JSON-LD document for a Recipe object.
// Arrays and @graph containers are walked in order.
func findRecipeNode(v interface{}) map[string]interface{} {
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			if n := findRecipeNode(item); n != nil {
				return n
			}
		}
	case map[string]interface{}:
		if isType(t["@type"], "Recipe") {
			return t
		}
		if g, ok := t["@graph"]; ok {
			return findRecipeNode(g)
		}
		if main, ok := t["mainEntity"]; ok {
			return findRecipeNode(main)
		}
	}
	return nil
}

func isType(v interface{}, want string) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, want) || strings.HasSuffix(t, "/"+want)
	case []interface{}:
		for _, item := range t {
			if isType(item, want) {
				return true
			}
		}
	}
	return false
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprint(t)
	case []interface{}:
		if len(t) > 0 {
			return stringValue(t[0])
		}
	case map[string]interface{}:
		if s, ok := t["text"]; ok {
			return stringValue(s)
		}
		if s, ok := t["name"]; ok {
			return stringValue(s)
		}
	}
	return ""
}

func stringList(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func imageValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		for _, item := range t {
			if s := imageValue(item); s != "" {
				return s
			}
		}
	case map[string]interface{}:
		if u, ok := t["url"].(string); ok {
			return u
		}
		if u, ok := t["contentUrl"].(string); ok {
			return u
		}
	}
	return ""
}

// instructions flattens recipeInstructions: a string (one step per line),
// a list of strings, HowToStep objects or HowToSection objects.
func instructions(v interface{}) []string {
	var out []string
	var walk func(v interface{})
	walk = func(v interface{}) {
		switch t := v.(type) {
		case string:
			for _, line := range strings.Split(t, "\n") {
				if line = cleanText(line); line != "" {
					out = append(out, line)
				}
			}
		case []interface{}:
			for _, item := range t {
				walk(item)
			}
		case map[string]interface{}:
			if items, ok := t["itemListElement"]; ok {
				walk(items)
				return
			}
			if text := cleanText(stringValue(t)); text != "" {
				out = append(out, text)
			}
		}
	}
	walk(v)
	return out
}

func tags(values ...interface{}) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range values {
		var raw []string
		if s, ok := v.(string); ok {
			raw = strings.Split(s, ",")
		} else {
			raw = stringList(v)
		}
		for _, tag := range raw {
			tag = strings.ToLower(cleanText(tag))
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

// cleanText strips markup some sites leave in JSON-LD strings and collapses
// whitespace.
func cleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
