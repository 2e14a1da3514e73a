package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Lines is a list of description lines. A bare JSON string decodes to a
// single line. Stored as a JSON array in one column.
type Lines []string

func (l *Lines) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = Lines{s}
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	*l = Lines(arr)
	return nil
}

func (l Lines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *Lines) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("Lines.Scan: unsupported type %T", src)
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err != nil {
		return fmt.Errorf("Lines.Scan: %w", err)
	}
	*l = Lines(arr)
	return nil
}

// StoreItem はストアで販売するレシピブックです。
type StoreItem struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Type        string    `db:"type" json:"type"`
	PlanType    string    `db:"plan_type" json:"planType,omitempty"`
	Description Lines     `db:"description" json:"description"`
	Author      string    `db:"author" json:"author"`
	Cost        float64   `db:"cost" json:"cost"`
	RecipeIDs   []string  `db:"-" json:"recipesId"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type StoreItemInput struct {
	Name        *string   `json:"name"`
	Type        *string   `json:"type"`
	PlanType    *string   `json:"planType"`
	Description *Lines    `json:"description"`
	Author      *string   `json:"author"`
	Cost        *float64  `json:"cost"`
	RecipeIDs   *[]string `json:"recipesId"`
}

func (in StoreItemInput) Apply(it *StoreItem) {
	if in.Name != nil {
		it.Name = *in.Name
	}
	if in.Type != nil {
		it.Type = *in.Type
	}
	if in.PlanType != nil {
		it.PlanType = *in.PlanType
	}
	if in.Description != nil {
		it.Description = *in.Description
	}
	if in.Author != nil {
		it.Author = *in.Author
	}
	if in.Cost != nil {
		it.Cost = *in.Cost
	}
	if in.RecipeIDs != nil {
		it.RecipeIDs = *in.RecipeIDs
	}
}

// Quote は購入予定アイテムの見積もりです。
type Quote struct {
	Items             []StoreItem `json:"items"`
	Subtotal          float64     `json:"subtotal"`
	TaxRate           float64     `json:"taxRate"`
	Tax               float64     `json:"tax"`
	Total             float64     `json:"total"`
	FormattedSubtotal string      `json:"formattedSubtotal"`
	FormattedTax      string      `json:"formattedTax"`
	FormattedTotal    string      `json:"formattedTotal"`
}
