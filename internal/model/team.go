package model

import (
	"github.com/shopspring/decimal"
)

// Team groups doctors paid through a percentage share of the revenue
// generated by their patients' authorizations.
type Team struct {
	Base
	Name                string          `db:"name" json:"name"`
	RevenueSharePercent decimal.Decimal `db:"revenue_share_percent" json:"revenue_share_percent"`
	Active              bool            `db:"active" json:"active"`
}

type CreateTeamRequest struct {
	Name                string           `json:"name" validate:"required,max=200"`
	RevenueSharePercent *decimal.Decimal `json:"revenue_share_percent"`
}

type UpdateTeamRequest struct {
	Name                *string          `json:"name" validate:"omitempty,max=200"`
	RevenueSharePercent *decimal.Decimal `json:"revenue_share_percent"`
	Active              *bool            `json:"active"`
}
