package clipper

import (
	"testing"

	"mealmate/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphPage = `<!DOCTYPE html>
<html><head>
<title>Site title</title>
<script type="application/ld+json">not json</script>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@graph": [
    {"@type": "WebSite", "name": "Cooking"},
    {
      "@type": ["Recipe", "NewsArticle"],
      "name": "Tomato &amp; Basil Soup",
      "description": "A <b>quick</b> soup.",
      "image": [{"@type": "ImageObject", "url": "https://img.example/soup.jpg"}],
      "recipeIngredient": ["2 cups tomato", "1 bunch basil", "Salt to taste"],
      "recipeInstructions": [
        {"@type": "HowToSection", "name": "Prep", "itemListElement": [
          {"@type": "HowToStep", "text": "Chop the tomatoes."}
        ]},
        {"@type": "HowToStep", "text": "Simmer for  20 minutes."}
      ],
      "keywords": "soup, Vegetarian , soup",
      "recipeCategory": ["Dinner"]
    }
  ]
}
</script>
</head><body></body></html>`

func TestParseRecipeHTMLGraph(t *testing.T) {
	r, err := ParseRecipeHTML(graphPage)
	require.NoError(t, err)

	assert.Equal(t, "Tomato & Basil Soup", r.Title)
	assert.Equal(t, "A quick soup.", r.Description)
	assert.Equal(t, "https://img.example/soup.jpg", r.ImageURL)

	want := []model.Ingredient{
		{Name: "tomato", Amount: "2", Unit: "cups"},
		{Name: "basil", Amount: "1", Unit: "bunch"},
		{Name: "Salt to taste"},
	}
	if diff := cmp.Diff(want, r.Ingredients); diff != "" {
		t.Fatalf("ingredients mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []model.Step{
		{Number: 1, Instruction: "Chop the tomatoes."},
		{Number: 2, Instruction: "Simmer for 20 minutes."},
	}, r.Steps)
	assert.Equal(t, []string{"soup", "vegetarian", "dinner"}, r.Tags)
}

func TestParseRecipeHTMLPlainInstructions(t *testing.T) {
	page := `<html><head>
<meta property="og:title" content="Toast">
<script type="application/ld+json">[{"@type":"Recipe","recipeIngredient":"1 slice bread","recipeInstructions":"Toast it.\nButter it.","image":"https://img.example/t.png"}]</script>
</head></html>`

	r, err := ParseRecipeHTML(page)
	require.NoError(t, err)
	assert.Equal(t, "Toast", r.Title, "falls back to og:title")
	assert.Equal(t, "https://img.example/t.png", r.ImageURL)
	require.Len(t, r.Ingredients, 1)
	assert.Equal(t, model.Ingredient{Name: "bread", Amount: "1", Unit: "slice"}, r.Ingredients[0])
	assert.Len(t, r.Steps, 2)
}

func TestParseRecipeHTMLNoRecipe(t *testing.T) {
	_, err := ParseRecipeHTML(`<html><head><script type="application/ld+json">{"@type":"Organization"}</script></head></html>`)
	assert.ErrorIs(t, err, ErrNoRecipe)
}
