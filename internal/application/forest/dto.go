package forest

import (
	"github.com/forestcrm/backend/internal/domain/forest"
	"github.com/shopspring/decimal"
)

// CreateForestRequest registers one forest parcel
type CreateForestRequest struct {
	InternalID     string                 `json:"internal_id" binding:"required"`
	Cadastral      forest.Cadastral       `json:"cadastral"`
	LandAttributes map[string]interface{} `json:"land_attributes"`
	Contracts      []forest.Contract      `json:"contracts"`
	Area           decimal.Decimal        `json:"area"`
	Tags           map[string]string      `json:"tags"`
}

// UpdateForestRequest replaces a parcel's editable fields
type UpdateForestRequest struct {
	Cadastral      forest.Cadastral       `json:"cadastral"`
	LandAttributes map[string]interface{} `json:"land_attributes"`
	Contracts      []forest.Contract      `json:"contracts"`
	Area           decimal.Decimal        `json:"area"`
	Tags           map[string]string      `json:"tags"`
}
