package entity

import "github.com/shopspring/decimal"

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"categoryId,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Available   bool            `json:"available"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
