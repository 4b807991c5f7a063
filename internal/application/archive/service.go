// Package archive implements the application operations on
// consultation records: CRUD, association link management with
// synchronous cache refresh, and scoped listing.
package archive

import (
	"context"

	"github.com/forestcrm/backend/internal/application/cachesync"
	"github.com/forestcrm/backend/internal/application/listing"
	"github.com/forestcrm/backend/internal/domain/archive"
	"github.com/forestcrm/backend/internal/domain/relation"
	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/forestcrm/backend/internal/domain/user"
	"github.com/forestcrm/backend/internal/infrastructure/taskqueue"
	"github.com/forestcrm/backend/internal/search"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles consultation record operations
type Service struct {
	archives   archive.Repository
	links      relation.ArchiveLinkRepository
	users      user.Repository
	cache      *cachesync.Service
	dispatcher *taskqueue.Dispatcher
	bus        shared.EventPublisher
	logger     *zap.Logger
}

// NewService creates an archive service
func NewService(
	archives archive.Repository,
	links relation.ArchiveLinkRepository,
	users user.Repository,
	cache *cachesync.Service,
	dispatcher *taskqueue.Dispatcher,
	bus shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		archives:   archives,
		links:      links,
		users:      users,
		cache:      cache,
		dispatcher: dispatcher,
		bus:        bus,
		logger:     logger,
	}
}

// Create registers a consultation record and its initial links
func (s *Service) Create(ctx context.Context, req CreateArchiveRequest) (*archive.Archive, error) {
	a, err := archive.NewArchive(req.Title, req.AuthorID)
	if err != nil {
		return nil, err
	}
	if err := a.Update(req.Title, req.Content, req.Location, req.FutureAction, req.ArchiveDate); err != nil {
		return nil, err
	}
	if req.Tags != nil {
		a.SetTags(req.Tags)
	}
	if err := s.archives.Save(ctx, a); err != nil {
		return nil, err
	}

	if len(req.ForestIDs) > 0 {
		if err := s.links.SaveForestLinks(ctx, a.ID, req.ForestIDs); err != nil {
			return nil, err
		}
	}
	if len(req.CustomerIDs) > 0 {
		if err := s.links.SaveCustomerLinks(ctx, a.ID, req.CustomerIDs); err != nil {
			return nil, err
		}
	}
	if len(req.UserIDs) > 0 {
		if err := s.links.SaveUserLinks(ctx, a.ID, req.UserIDs); err != nil {
			return nil, err
		}
	}
	if err := s.cache.RefreshArchiveCaches(ctx, []uuid.UUID{a.ID}); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, a)
	return a, nil
}

// Get loads one record
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*archive.Archive, error) {
	return s.archives.FindByID(ctx, id)
}

// Update replaces a record's editable fields
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateArchiveRequest) (*archive.Archive, error) {
	a, err := s.archives.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.Update(req.Title, req.Content, req.Location, req.FutureAction, req.ArchiveDate); err != nil {
		return nil, err
	}
	if req.Tags != nil {
		a.SetTags(req.Tags)
	}
	if err := s.archives.Save(ctx, a); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, a)
	return a, nil
}

// Delete soft-deletes a record
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.archives.Delete(ctx, id)
}

// AddRelatedForests links forests to the record and refreshes its
// forest rollup synchronously
func (s *Service) AddRelatedForests(ctx context.Context, id uuid.UUID, forestIDs []uuid.UUID) error {
	if _, err := s.archives.FindByID(ctx, id); err != nil {
		return err
	}
	current, err := s.links.ActiveForestIDs(ctx, id)
	if err != nil {
		return err
	}
	if err := s.links.SaveForestLinks(ctx, id, mergeIDs(current, forestIDs)); err != nil {
		return err
	}
	return s.cache.RefreshArchiveCaches(ctx, []uuid.UUID{id})
}

// DeleteRelatedForests tombstones forest links and refreshes the rollup
func (s *Service) DeleteRelatedForests(ctx context.Context, id uuid.UUID, forestIDs []uuid.UUID) error {
	for _, forestID := range forestIDs {
		if err := s.links.TombstoneForestLink(ctx, id, forestID); err != nil {
			return err
		}
	}
	return s.cache.RefreshArchiveCaches(ctx, []uuid.UUID{id})
}

// AddParticipants links customers as counterpart participants
func (s *Service) AddParticipants(ctx context.Context, id uuid.UUID, customerIDs []uuid.UUID) error {
	if _, err := s.archives.FindByID(ctx, id); err != nil {
		return err
	}
	current, err := s.links.ActiveCustomerIDs(ctx, id)
	if err != nil {
		return err
	}
	if err := s.links.SaveCustomerLinks(ctx, id, mergeIDs(current, customerIDs)); err != nil {
		return err
	}
	return s.cache.RefreshArchiveCaches(ctx, []uuid.UUID{id})
}

// DeleteParticipants tombstones customer links and refreshes the rollup
func (s *Service) DeleteParticipants(ctx context.Context, id uuid.UUID, customerIDs []uuid.UUID) error {
	for _, customerID := range customerIDs {
		if err := s.links.TombstoneCustomerLink(ctx, id, customerID); err != nil {
			return err
		}
	}
	return s.cache.RefreshArchiveCaches(ctx, []uuid.UUID{id})
}

// AddRelatedUsers links staff members as our-side participants
func (s *Service) AddRelatedUsers(ctx context.Context, id uuid.UUID, userIDs []uuid.UUID) error {
	if _, err := s.archives.FindByID(ctx, id); err != nil {
		return err
	}
	unique := mergeIDs(nil, userIDs)
	if len(unique) > 0 {
		found, err := s.users.FindByIDs(ctx, unique)
		if err != nil {
			return err
		}
		if len(found) != len(unique) {
			return shared.NewNotFoundError("User")
		}
	}
	current, err := s.links.ActiveUserIDs(ctx, id)
	if err != nil {
		return err
	}
	if err := s.links.SaveUserLinks(ctx, id, mergeIDs(current, userIDs)); err != nil {
		return err
	}
	return s.cache.RefreshArchiveCaches(ctx, []uuid.UUID{id})
}

// DeleteRelatedUsers tombstones user links and refreshes the rollup
func (s *Service) DeleteRelatedUsers(ctx context.Context, id uuid.UUID, userIDs []uuid.UUID) error {
	for _, userID := range userIDs {
		if err := s.links.TombstoneUserLink(ctx, id, userID); err != nil {
			return err
		}
	}
	return s.cache.RefreshArchiveCaches(ctx, []uuid.UUID{id})
}

// List returns the filtered, ordered, paginated record listing. A
// restricted caller only sees records they authored or participate in.
func (s *Service) List(ctx context.Context, ac search.AccessContext, req listing.Request) (shared.Paginated[archive.ListRow], error) {
	query, err := req.ListQuery()
	if err != nil {
		return shared.Paginated[archive.ListRow]{}, err
	}
	pred := shared.AndPredicates(search.Compile(search.ArchiveMapping, req.Criteria), scopePredicate(ac))
	rows, total, err := s.archives.List(ctx, query, pred)
	if err != nil {
		return shared.Paginated[archive.ListRow]{}, err
	}
	return shared.NewPaginated(rows, total, query.PageNum, query.PerPage), nil
}

// scopePredicate widens the author-only scope to records where the
// caller holds an active participant link. Membership is checked on
// the link table itself, not on the display rollup, so a stale cache
// or a name collision cannot change who sees the record.
func scopePredicate(ac search.AccessContext) shared.Predicate {
	if !ac.Restricted {
		return shared.Predicate{}
	}
	participant := shared.Predicate{
		SQL: "EXISTS (SELECT 1 FROM archive_users au " +
			"WHERE au.archive_id = listing.id AND au.user_id = ? AND au.deleted_at IS NULL)",
		Args: []interface{}{ac.UserID},
	}
	return shared.OrPredicates(ac.ScopePredicate("listing.author_id"), participant)
}

// ReloadCache enqueues a background rebuild of one record's rollups
// and returns the task name for tracking
func (s *Service) ReloadCache(ctx context.Context, id uuid.UUID) (string, error) {
	if _, err := s.archives.FindByID(ctx, id); err != nil {
		return "", err
	}
	name := taskqueue.RandomTaskName("archive_cache_reload")
	err := s.dispatcher.Enqueue(ctx, taskqueue.Task{
		Name: name,
		Run: func(taskCtx context.Context) error {
			return s.cache.RefreshArchiveCaches(taskCtx, []uuid.UUID{id})
		},
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

// mergeIDs unions two id lists preserving first-occurrence order
func mergeIDs(current, added []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(current)+len(added))
	merged := make([]uuid.UUID, 0, len(current)+len(added))
	for _, list := range [][]uuid.UUID{current, added} {
		for _, id := range list {
			if seen[id] {
				continue
			}
			seen[id] = true
			merged = append(merged, id)
		}
	}
	return merged
}

// publishEvents flushes the aggregate's pending events onto the bus
func (s *Service) publishEvents(ctx context.Context, a *archive.Archive) {
	events := a.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.bus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish archive events",
			zap.String("archive_id", a.ID.String()),
			zap.Error(err))
	}
	a.ClearDomainEvents()
}
