package models

import "github.com/shopspring/decimal"

type TransactionStats struct {
	CurrentBalance   decimal.Decimal `json:"current_balance"`
	TotalRecettes    decimal.Decimal `json:"total_recettes"`
	TotalDepenses    decimal.Decimal `json:"total_depenses"`
	TransactionCount int             `json:"transaction_count"`
}

type DashboardStats struct {
	TransactionStats
	TodayRecettes decimal.Decimal `json:"today_recettes"`
	TodayDepenses decimal.Decimal `json:"today_depenses"`
}

type AreaPoint struct {
	Date     string          `json:"date"`
	Recettes decimal.Decimal `json:"recettes"`
	Depenses decimal.Decimal `json:"depenses"`
}

type CategorySlice struct {
	Name     string          `json:"name"`
	Value    decimal.Decimal `json:"value"`
	Color    string          `json:"color"`
	Recettes decimal.Decimal `json:"recettes"`
	Depenses decimal.Decimal `json:"depenses"`
}

type Analytics struct {
	AreaData         []AreaPoint     `json:"area_data"`
	CategoryData     []CategorySlice `json:"category_data"`
	TotalRecettes    decimal.Decimal `json:"total_recettes"`
	TotalDepenses    decimal.Decimal `json:"total_depenses"`
	CurrentBalance   decimal.Decimal `json:"current_balance"`
	TransactionCount int             `json:"transaction_count"`
	ProfitMargin     float64         `json:"profit_margin"`
	DateFrom         string          `json:"date_from"`
	DateTo           string          `json:"date_to"`
}
