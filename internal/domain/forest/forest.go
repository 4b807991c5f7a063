package forest

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Cadastral locates a forest parcel in the official land registry
type Cadastral struct {
	Prefecture   string `json:"prefecture"`
	Municipality string `json:"municipality"`
	Sector       string `json:"sector"`
	Subsector    string `json:"subsector"`
}

// Value implements driver.Valuer
func (c Cadastral) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (c *Cadastral) Scan(value interface{}) error {
	return scanJSON(value, c)
}

// Contract is one contractual agreement attached to a forest. The
// contract list keeps the primary contract at index 0 and the FSC
// certification contract last.
type Contract struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Contracts is the jsonb-persisted contract list
type Contracts []Contract

// Value implements driver.Valuer
func (c Contracts) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (c *Contracts) Scan(value interface{}) error {
	return scanJSON(value, c)
}

// Primary returns the primary contract, or a zero contract when none exists
func (c Contracts) Primary() Contract {
	if len(c) == 0 {
		return Contract{}
	}
	return c[0]
}

// FSC returns the FSC certification contract, kept last in the list
func (c Contracts) FSC() Contract {
	if len(c) == 0 {
		return Contract{}
	}
	return c[len(c)-1]
}

func scanJSON(value, dest interface{}) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

// Forest represents one forest land parcel. Its attributes carry the
// owner cache (customer_cache) rebuilt from ForestCustomer links.
type Forest struct {
	shared.BaseAggregateRoot
	InternalID     string          `gorm:"type:varchar(255);index"`
	Cadastral      Cadastral       `gorm:"type:jsonb"`
	LandAttributes shared.JSONMap  `gorm:"type:jsonb"`
	Contracts      Contracts       `gorm:"type:jsonb"`
	Area           decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Forest) TableName() string {
	return "forests"
}

// NewForest creates a forest parcel
func NewForest(internalID string, cadastral Cadastral) *Forest {
	f := &Forest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InternalID:        internalID,
		Cadastral:         cadastral,
		LandAttributes:    shared.JSONMap{},
		Contracts:         Contracts{},
	}
	f.AddDomainEvent(NewForestCreatedEvent(f))
	return f
}

// UpdateBasicInfo replaces the cadastral and land-registry details
func (f *Forest) UpdateBasicInfo(cadastral Cadastral, landAttributes shared.JSONMap) {
	f.Cadastral = cadastral
	if landAttributes != nil {
		f.LandAttributes = landAttributes
	}
	f.Touch()
	f.AddDomainEvent(NewForestUpdatedEvent(f))
}

// SetContracts replaces the contract list
func (f *Forest) SetContracts(contracts Contracts) {
	if contracts == nil {
		contracts = Contracts{}
	}
	f.Contracts = contracts
	f.Touch()
	f.AddDomainEvent(NewForestUpdatedEvent(f))
}

// SetArea updates the parcel area
func (f *Forest) SetArea(area decimal.Decimal) error {
	if area.IsNegative() {
		return shared.NewDomainError("INVALID_AREA", "Area cannot be negative")
	}
	f.Area = area
	f.Touch()
	return nil
}

// SetTags replaces the forest's tag map, dropping empty keys
func (f *Forest) SetTags(tags map[string]string) {
	next := shared.StringMap{}
	for k, v := range tags {
		if strings.TrimSpace(k) == "" {
			continue
		}
		next[k] = v
	}
	f.Tags = next
	f.Touch()
}

// Touch bumps version and updated-at after a mutation
func (f *Forest) Touch() {
	f.UpdatedAt = time.Now()
	f.IncrementVersion()
}
