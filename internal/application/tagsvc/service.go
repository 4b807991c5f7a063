// Package tagsvc implements tag maintenance: tag setting CRUD, bulk
// tag assignment, tag-key migration with dry-run, and discovery of the
// keys and values in use.
package tagsvc

import (
	"context"

	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/forestcrm/backend/internal/domain/tag"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateSettingRequest declares a tag key for one aggregate family
type CreateSettingRequest struct {
	ObjectType tag.ObjectType `json:"object_type" binding:"required"`
	Name       string         `json:"name" binding:"required"`
	Code       string         `json:"code"`
	AuthorID   *uuid.UUID     `json:"author_id"`
	Colors     []tag.ColorMap `json:"colors"`
}

// UpdateSettingRequest replaces a tag setting's editable fields
type UpdateSettingRequest struct {
	Name   string         `json:"name" binding:"required"`
	Code   string         `json:"code"`
	Colors []tag.ColorMap `json:"colors"`
}

// Service handles tag maintenance operations
type Service struct {
	settings tag.SettingRepository
	objects  tag.ObjectRepository
	logger   *zap.Logger
}

// NewService creates a tag service
func NewService(settings tag.SettingRepository, objects tag.ObjectRepository, logger *zap.Logger) *Service {
	return &Service{
		settings: settings,
		objects:  objects,
		logger:   logger,
	}
}

// ListSettings returns the tag settings of one aggregate family
func (s *Service) ListSettings(ctx context.Context, objectType tag.ObjectType) ([]tag.Setting, error) {
	if !objectType.Valid() {
		return nil, shared.NewDomainError("INVALID_OBJECT_TYPE", "Unknown tag object type")
	}
	return s.settings.FindByType(ctx, objectType)
}

// CreateSetting declares a new tag key
func (s *Service) CreateSetting(ctx context.Context, req CreateSettingRequest) (*tag.Setting, error) {
	setting, err := tag.NewSetting(req.ObjectType, req.Name, req.Code, req.AuthorID)
	if err != nil {
		return nil, err
	}
	if len(req.Colors) > 0 {
		setting.SetColors(req.Colors)
	}
	if err := s.settings.Save(ctx, setting); err != nil {
		return nil, err
	}
	return setting, nil
}

// UpdateSetting replaces a tag setting's editable fields
func (s *Service) UpdateSetting(ctx context.Context, id uuid.UUID, req UpdateSettingRequest) (*tag.Setting, error) {
	setting, err := s.settings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	setting.Name = req.Name
	setting.Code = req.Code
	if req.Colors != nil {
		setting.SetColors(req.Colors)
	}
	if err := s.settings.Save(ctx, setting); err != nil {
		return nil, err
	}
	return setting, nil
}

// DeleteSetting soft-deletes a tag setting. Tags already assigned on
// rows stay untouched; the setting only drives the UI.
func (s *Service) DeleteSetting(ctx context.Context, id uuid.UUID) error {
	return s.settings.Delete(ctx, id)
}

// UpdateTags merges one tag key/value into the given rows. Keys already
// present on a row under other names stay as they are.
func (s *Service) UpdateTags(ctx context.Context, objectType tag.ObjectType, ids []uuid.UUID, key, value string) error {
	if !objectType.Valid() {
		return shared.NewDomainError("INVALID_OBJECT_TYPE", "Unknown tag object type")
	}
	return s.objects.UpdateTags(ctx, objectType, ids, key, value)
}

// MigrateTagKeyObjects renames a tag key across one aggregate family.
// With doUpdate false it reports the affected row count without writing.
func (s *Service) MigrateTagKeyObjects(ctx context.Context, objectType tag.ObjectType, fromKey, toKey string, doUpdate bool) (tag.MigrationResult, error) {
	if !objectType.Valid() {
		return tag.MigrationResult{}, shared.NewDomainError("INVALID_OBJECT_TYPE", "Unknown tag object type")
	}
	result, err := s.objects.MigrateKey(ctx, objectType, fromKey, toKey, doUpdate)
	if err != nil {
		return result, err
	}
	if result.Applied {
		s.logger.Info("migrated tag key",
			zap.String("object_type", string(objectType)),
			zap.String("from", fromKey),
			zap.String("to", toKey),
			zap.Int64("rows", result.Count))
	}
	return result, nil
}

// MigrateTagKeyAllObjects renames a tag key across every aggregate
// family and reports the per-family results
func (s *Service) MigrateTagKeyAllObjects(ctx context.Context, fromKey, toKey string, doUpdate bool) ([]tag.MigrationResult, error) {
	objectTypes := []tag.ObjectType{
		tag.ObjectTypeForest,
		tag.ObjectTypeCustomer,
		tag.ObjectTypeArchive,
		tag.ObjectTypePostalHistory,
	}
	results := make([]tag.MigrationResult, 0, len(objectTypes))
	for _, objectType := range objectTypes {
		result, err := s.MigrateTagKeyObjects(ctx, objectType, fromKey, toKey, doUpdate)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// DistinctKeys lists the tag keys in use by one aggregate family
func (s *Service) DistinctKeys(ctx context.Context, objectType tag.ObjectType) ([]string, error) {
	if !objectType.Valid() {
		return nil, shared.NewDomainError("INVALID_OBJECT_TYPE", "Unknown tag object type")
	}
	return s.objects.DistinctKeys(ctx, objectType)
}

// DistinctValues lists the values in use under one tag key
func (s *Service) DistinctValues(ctx context.Context, objectType tag.ObjectType, key string) ([]string, error) {
	if !objectType.Valid() {
		return nil, shared.NewDomainError("INVALID_OBJECT_TYPE", "Unknown tag object type")
	}
	return s.objects.DistinctValues(ctx, objectType, key)
}
