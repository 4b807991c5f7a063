// Package cachesync rebuilds the derived caches each aggregate carries
// in its attributes: forest owner rollups and the association rollups
// on consultation and mailing records. Rebuilds are full replacements
// computed from the live relation links, so any refresh can be re-run
// safely after a missed or failed one.
package cachesync

import (
	"context"

	"github.com/forestcrm/backend/internal/domain/archive"
	"github.com/forestcrm/backend/internal/domain/forest"
	"github.com/forestcrm/backend/internal/domain/postal"
	"github.com/forestcrm/backend/internal/domain/relation"
	"github.com/forestcrm/backend/internal/domain/repcache"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service rebuilds derived caches from the relation links
type Service struct {
	forests      forest.Repository
	archives     archive.Repository
	postals      postal.Repository
	forestOwners relation.ForestCustomerRepository
	archiveLinks relation.ArchiveLinkRepository
	postalLinks  relation.PostalHistoryLinkRepository
	logger       *zap.Logger
}

// NewService creates a cache synchronization service
func NewService(
	forests forest.Repository,
	archives archive.Repository,
	postals postal.Repository,
	forestOwners relation.ForestCustomerRepository,
	archiveLinks relation.ArchiveLinkRepository,
	postalLinks relation.PostalHistoryLinkRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		forests:      forests,
		archives:     archives,
		postals:      postals,
		forestOwners: forestOwners,
		archiveLinks: archiveLinks,
		postalLinks:  postalLinks,
		logger:       logger,
	}
}

// RefreshForestOwnerCache rebuilds the owner rollup on the given forest
// parcels. An empty id slice rebuilds every parcel. A failure on one
// parcel is logged and skipped so the rest of the batch still refreshes.
func (s *Service) RefreshForestOwnerCache(ctx context.Context, forestIDs []uuid.UUID) error {
	parcels, err := s.forests.FindByIDs(ctx, forestIDs)
	if err != nil {
		return err
	}
	for _, f := range parcels {
		owners, err := s.forestOwners.ActiveOwnersByForest(ctx, f.ID)
		if err != nil {
			s.logger.Warn("owner cache rebuild failed, keeping stale value",
				zap.String("forest_id", f.ID.String()),
				zap.Error(err))
			continue
		}
		rollup := repcache.NewOwnerRollup(owners)
		if err := f.Attributes.SetObject(repcache.KeyCustomerCache, rollup); err != nil {
			s.logger.Warn("owner cache rebuild failed, keeping stale value",
				zap.String("forest_id", f.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.forests.SaveAttributes(ctx, f); err != nil {
			s.logger.Warn("owner cache save failed",
				zap.String("forest_id", f.ID.String()),
				zap.Error(err))
		}
	}
	return nil
}

// RefreshArchiveCaches rebuilds all three rollups on the given
// consultation records. An empty id slice rebuilds every record.
func (s *Service) RefreshArchiveCaches(ctx context.Context, archiveIDs []uuid.UUID) error {
	records, err := s.archives.FindByIDs(ctx, archiveIDs)
	if err != nil {
		return err
	}
	for _, a := range records {
		if !s.rebuildArchiveCaches(ctx, a) {
			continue
		}
		if err := s.archives.SaveAttributes(ctx, a); err != nil {
			s.logger.Warn("archive cache save failed",
				zap.String("archive_id", a.ID.String()),
				zap.Error(err))
		}
	}
	return nil
}

// rebuildArchiveCaches recomputes the three rollups in memory. Any
// failure keeps the record's previous cache values untouched.
func (s *Service) rebuildArchiveCaches(ctx context.Context, a *archive.Archive) bool {
	forests, err := s.archiveLinks.ActiveForestsByArchive(ctx, a.ID)
	if err != nil {
		return s.warnArchive(a.ID, err)
	}
	customers, err := s.archiveLinks.ActiveCustomersByArchive(ctx, a.ID)
	if err != nil {
		return s.warnArchive(a.ID, err)
	}
	users, err := s.archiveLinks.ActiveUsersByArchive(ctx, a.ID)
	if err != nil {
		return s.warnArchive(a.ID, err)
	}
	if err := a.Attributes.SetObject(repcache.KeyForestCache, repcache.ForestRollup(forests)); err != nil {
		return s.warnArchive(a.ID, err)
	}
	if err := a.Attributes.SetObject(repcache.KeyCustomerCache, repcache.CustomerRollup(customers)); err != nil {
		return s.warnArchive(a.ID, err)
	}
	if err := a.Attributes.SetObject(repcache.KeyUserCache, repcache.UserRollup(users)); err != nil {
		return s.warnArchive(a.ID, err)
	}
	return true
}

func (s *Service) warnArchive(id uuid.UUID, err error) bool {
	s.logger.Warn("archive cache rebuild failed, keeping stale value",
		zap.String("archive_id", id.String()),
		zap.Error(err))
	return false
}

// RefreshPostalHistoryCaches rebuilds all three rollups on the given
// mailing records. An empty id slice rebuilds every record.
func (s *Service) RefreshPostalHistoryCaches(ctx context.Context, postalHistoryIDs []uuid.UUID) error {
	records, err := s.postals.FindByIDs(ctx, postalHistoryIDs)
	if err != nil {
		return err
	}
	for _, p := range records {
		if !s.rebuildPostalCaches(ctx, p) {
			continue
		}
		if err := s.postals.SaveAttributes(ctx, p); err != nil {
			s.logger.Warn("postal history cache save failed",
				zap.String("postal_history_id", p.ID.String()),
				zap.Error(err))
		}
	}
	return nil
}

func (s *Service) rebuildPostalCaches(ctx context.Context, p *postal.PostalHistory) bool {
	forests, err := s.postalLinks.ActiveForestsByPostalHistory(ctx, p.ID)
	if err != nil {
		return s.warnPostal(p.ID, err)
	}
	customers, err := s.postalLinks.ActiveCustomersByPostalHistory(ctx, p.ID)
	if err != nil {
		return s.warnPostal(p.ID, err)
	}
	users, err := s.postalLinks.ActiveUsersByPostalHistory(ctx, p.ID)
	if err != nil {
		return s.warnPostal(p.ID, err)
	}
	if err := p.Attributes.SetObject(repcache.KeyForestCache, repcache.ForestRollup(forests)); err != nil {
		return s.warnPostal(p.ID, err)
	}
	if err := p.Attributes.SetObject(repcache.KeyCustomerCache, repcache.CustomerRollup(customers)); err != nil {
		return s.warnPostal(p.ID, err)
	}
	if err := p.Attributes.SetObject(repcache.KeyUserCache, repcache.UserRollup(users)); err != nil {
		return s.warnPostal(p.ID, err)
	}
	return true
}

func (s *Service) warnPostal(id uuid.UUID, err error) bool {
	s.logger.Warn("postal history cache rebuild failed, keeping stale value",
		zap.String("postal_history_id", id.String()),
		zap.Error(err))
	return false
}

// RefreshAll rebuilds every derived cache in the system. Used by the
// operator-facing cache reload endpoint after bulk data fixes.
func (s *Service) RefreshAll(ctx context.Context) error {
	if err := s.RefreshForestOwnerCache(ctx, nil); err != nil {
		return err
	}
	if err := s.RefreshArchiveCaches(ctx, nil); err != nil {
		return err
	}
	return s.RefreshPostalHistoryCaches(ctx, nil)
}
