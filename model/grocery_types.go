package model

import (
	"time"

	"mealmate/grocery"
)

// GroceryList is a persisted recipe selection plus its checked ingredient lines.
type GroceryList struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	UserID     string    `db:"user_id" json:"userId,omitempty"`
	RecipeIDs  []string  `db:"-" json:"recipeIds"`
	CheckedIDs []string  `db:"-" json:"checkedIds"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// GroceryListView is a list together with its consolidated entries.
type GroceryListView struct {
	GroceryList
	Entries   []grocery.Entry   `json:"entries"`
	Anomalies []grocery.Anomaly `json:"anomalies"`
}
