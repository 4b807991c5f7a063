package tag

import (
	"context"

	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ObjectType identifies which aggregate family a tag setting applies to
type ObjectType string

const (
	ObjectTypeForest        ObjectType = "forest"
	ObjectTypeCustomer      ObjectType = "customer"
	ObjectTypeArchive       ObjectType = "archive"
	ObjectTypePostalHistory ObjectType = "postalhistory"
)

// Valid reports whether the object type names a known aggregate family
func (t ObjectType) Valid() bool {
	switch t {
	case ObjectTypeForest, ObjectTypeCustomer, ObjectTypeArchive, ObjectTypePostalHistory:
		return true
	}
	return false
}

// Setting declares a known tag key for one aggregate family, with
// optional per-value display colors kept in Attributes.
type Setting struct {
	shared.BaseEntity
	ObjectType ObjectType     `gorm:"type:varchar(30);not null;uniqueIndex:idx_tag_setting_type_name,priority:1"`
	Name       string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_tag_setting_type_name,priority:2"`
	Code       string         `gorm:"type:varchar(50);not null"`
	AuthorID   *uuid.UUID     `gorm:"type:uuid"`
	Attributes shared.JSONMap `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (Setting) TableName() string {
	return "tag_settings"
}

// NewSetting creates a tag setting for one aggregate family
func NewSetting(objectType ObjectType, name, code string, authorID *uuid.UUID) (*Setting, error) {
	if !objectType.Valid() {
		return nil, shared.NewDomainError("INVALID_OBJECT_TYPE", "Unknown tag object type")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Tag name cannot be empty")
	}
	return &Setting{
		BaseEntity: shared.NewBaseEntity(),
		ObjectType: objectType,
		Name:       name,
		Code:       code,
		AuthorID:   authorID,
		Attributes: shared.JSONMap{},
	}, nil
}

// SetColors stores the value-to-color display map
func (s *Setting) SetColors(colors []ColorMap) {
	list := make([]interface{}, 0, len(colors))
	for _, c := range colors {
		list = append(list, map[string]interface{}{"value": c.Value, "color": c.Color})
	}
	s.Attributes["colors"] = list
}

// ColorMap pairs one tag value with a display color
type ColorMap struct {
	Value string `json:"value"`
	Color string `json:"color"`
}

// SettingRepository defines persistence for tag settings
type SettingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Setting, error)
	FindByType(ctx context.Context, objectType ObjectType) ([]Setting, error)
	Save(ctx context.Context, setting *Setting) error
	Delete(ctx context.Context, id uuid.UUID) error
}
