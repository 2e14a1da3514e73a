package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Amount は材料の分量です。数値・文字列どちらの JSON も受け付け、値はそのまま保持します。
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = Amount(n.String())
	return nil
}

// UnmarshalYAML は "2" と 2 を同じ値にし、null は空にします。リストやマップは受け付けません。
func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("amount must be a scalar, got %s at line %d", kindName(node.Kind), node.Line)
	}
	if node.Tag == "!!null" {
		*a = ""
		return nil
	}
	*a = Amount(node.Value)
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "map"
	case yaml.AliasNode:
		return "alias"
	}
	return "node"
}

// Ingredient is one ingredient line of a recipe.
type Ingredient struct {
	ID       string `db:"id" json:"id"`
	RecipeID string `db:"recipe_id" json:"-"`
	Position int    `db:"position" json:"-"`
	Name     string `db:"name" json:"name"`
	Amount   Amount `db:"amount" json:"amount"`
	Unit     string `db:"unit" json:"unit"`
	Type     string `db:"type" json:"type"`
}

type Step struct {
	RecipeID    string `db:"recipe_id" json:"-"`
	Number      int    `db:"number" json:"number"`
	Instruction string `db:"instruction" json:"instruction"`
}

type Recipe struct {
	ID          string       `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	ImageURL    string       `db:"image_url" json:"imageUrl,omitempty"`
	Author      string       `db:"author" json:"author"`
	Ingredients []Ingredient `db:"-" json:"ingredients"`
	Steps       []Step       `db:"-" json:"steps"`
	Tags        []string     `db:"-" json:"tags"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updatedAt"`
}

// RecipeInput is the body of create and update requests.
// nil fields are left untouched on update.
type RecipeInput struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Ingredients *[]Ingredient `json:"ingredients"`
	Steps       *[]Step       `json:"steps"`
	Tags        *[]string     `json:"tags"`
	ImageURL    *string       `json:"imageUrl"`
	Author      *string       `json:"author"`
}

// Apply copies the non-nil fields of in onto r.
func (in RecipeInput) Apply(r *Recipe) {
	if in.Title != nil {
		r.Title = *in.Title
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	if in.Ingredients != nil {
		r.Ingredients = *in.Ingredients
	}
	if in.Steps != nil {
		r.Steps = *in.Steps
	}
	if in.Tags != nil {
		r.Tags = *in.Tags
	}
	if in.ImageURL != nil {
		r.ImageURL = *in.ImageURL
	}
	if in.Author != nil {
		r.Author = *in.Author
	}
}

// RecipeFilters は一覧取得時の絞り込み条件です。
type RecipeFilters struct {
	Tag    string
	Query  string
	Author string
}
