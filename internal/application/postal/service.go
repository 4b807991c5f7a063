// Package postal implements the application operations on mailing
// records: CRUD, recipient link management with synchronous cache
// refresh, and scoped listing.
package postal

import (
	"context"

	"github.com/forestcrm/backend/internal/application/cachesync"
	"github.com/forestcrm/backend/internal/application/listing"
	"github.com/forestcrm/backend/internal/domain/postal"
	"github.com/forestcrm/backend/internal/domain/relation"
	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/forestcrm/backend/internal/domain/user"
	"github.com/forestcrm/backend/internal/search"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles mailing record operations
type Service struct {
	postals postal.Repository
	links   relation.PostalHistoryLinkRepository
	users   user.Repository
	cache   *cachesync.Service
	bus     shared.EventPublisher
	logger  *zap.Logger
}

// NewService creates a postal history service
func NewService(
	postals postal.Repository,
	links relation.PostalHistoryLinkRepository,
	users user.Repository,
	cache *cachesync.Service,
	bus shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		postals: postals,
		links:   links,
		users:   users,
		cache:   cache,
		bus:     bus,
		logger:  logger,
	}
}

// Create registers a mailing record and its initial links
func (s *Service) Create(ctx context.Context, req CreatePostalHistoryRequest) (*postal.PostalHistory, error) {
	p, err := postal.NewPostalHistory(req.Title, req.AuthorID)
	if err != nil {
		return nil, err
	}
	if err := p.Update(req.Title, req.Content, req.DocumentRef, req.SentDate); err != nil {
		return nil, err
	}
	if req.Tags != nil {
		p.SetTags(req.Tags)
	}
	if err := s.postals.Save(ctx, p); err != nil {
		return nil, err
	}

	if len(req.ForestIDs) > 0 {
		if err := s.links.SaveForestLinks(ctx, p.ID, req.ForestIDs); err != nil {
			return nil, err
		}
	}
	if len(req.CustomerIDs) > 0 {
		if err := s.links.SaveCustomerLinks(ctx, p.ID, req.CustomerIDs); err != nil {
			return nil, err
		}
	}
	if len(req.UserIDs) > 0 {
		if err := s.links.SaveUserLinks(ctx, p.ID, req.UserIDs); err != nil {
			return nil, err
		}
	}
	if err := s.cache.RefreshPostalHistoryCaches(ctx, []uuid.UUID{p.ID}); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, p)
	return p, nil
}

// Get loads one record
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*postal.PostalHistory, error) {
	return s.postals.FindByID(ctx, id)
}

// Update replaces a record's editable fields
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdatePostalHistoryRequest) (*postal.PostalHistory, error) {
	p, err := s.postals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Update(req.Title, req.Content, req.DocumentRef, req.SentDate); err != nil {
		return nil, err
	}
	if req.Tags != nil {
		p.SetTags(req.Tags)
	}
	if err := s.postals.Save(ctx, p); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, p)
	return p, nil
}

// Delete soft-deletes a record
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.postals.Delete(ctx, id)
}

// AddRelatedForests links forests to the record and refreshes its
// forest rollup synchronously
func (s *Service) AddRelatedForests(ctx context.Context, id uuid.UUID, forestIDs []uuid.UUID) error {
	if _, err := s.postals.FindByID(ctx, id); err != nil {
		return err
	}
	current, err := s.links.ActiveForestIDs(ctx, id)
	if err != nil {
		return err
	}
	if err := s.links.SaveForestLinks(ctx, id, mergeIDs(current, forestIDs)); err != nil {
		return err
	}
	return s.cache.RefreshPostalHistoryCaches(ctx, []uuid.UUID{id})
}

// DeleteRelatedForests tombstones forest links and refreshes the rollup
func (s *Service) DeleteRelatedForests(ctx context.Context, id uuid.UUID, forestIDs []uuid.UUID) error {
	for _, forestID := range forestIDs {
		if err := s.links.TombstoneForestLink(ctx, id, forestID); err != nil {
			return err
		}
	}
	return s.cache.RefreshPostalHistoryCaches(ctx, []uuid.UUID{id})
}

// AddRecipients links customers as mailing recipients
func (s *Service) AddRecipients(ctx context.Context, id uuid.UUID, customerIDs []uuid.UUID) error {
	if _, err := s.postals.FindByID(ctx, id); err != nil {
		return err
	}
	current, err := s.links.ActiveCustomerIDs(ctx, id)
	if err != nil {
		return err
	}
	if err := s.links.SaveCustomerLinks(ctx, id, mergeIDs(current, customerIDs)); err != nil {
		return err
	}
	return s.cache.RefreshPostalHistoryCaches(ctx, []uuid.UUID{id})
}

// DeleteRecipients tombstones customer links and refreshes the rollup
func (s *Service) DeleteRecipients(ctx context.Context, id uuid.UUID, customerIDs []uuid.UUID) error {
	for _, customerID := range customerIDs {
		if err := s.links.TombstoneCustomerLink(ctx, id, customerID); err != nil {
			return err
		}
	}
	return s.cache.RefreshPostalHistoryCaches(ctx, []uuid.UUID{id})
}

// AddRelatedUsers links staff members as senders
func (s *Service) AddRelatedUsers(ctx context.Context, id uuid.UUID, userIDs []uuid.UUID) error {
	if _, err := s.postals.FindByID(ctx, id); err != nil {
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
	return s.cache.RefreshPostalHistoryCaches(ctx, []uuid.UUID{id})
}

// DeleteRelatedUsers tombstones user links and refreshes the rollup
func (s *Service) DeleteRelatedUsers(ctx context.Context, id uuid.UUID, userIDs []uuid.UUID) error {
	for _, userID := range userIDs {
		if err := s.links.TombstoneUserLink(ctx, id, userID); err != nil {
			return err
		}
	}
	return s.cache.RefreshPostalHistoryCaches(ctx, []uuid.UUID{id})
}

// List returns the filtered, ordered, paginated record listing. A
// restricted caller only sees records they authored or sent.
func (s *Service) List(ctx context.Context, ac search.AccessContext, req listing.Request) (shared.Paginated[postal.ListRow], error) {
	query, err := req.ListQuery()
	if err != nil {
		return shared.Paginated[postal.ListRow]{}, err
	}
	pred := shared.AndPredicates(search.Compile(search.PostalHistoryMapping, req.Criteria), scopePredicate(ac))
	rows, total, err := s.postals.List(ctx, query, pred)
	if err != nil {
		return shared.Paginated[postal.ListRow]{}, err
	}
	return shared.NewPaginated(rows, total, query.PageNum, query.PerPage), nil
}

// scopePredicate widens the author-only scope to records where the
// caller holds an active sender link. Membership is checked on the
// link table itself, not on the display rollup, so a stale cache or a
// name collision cannot change who sees the record.
func scopePredicate(ac search.AccessContext) shared.Predicate {
	if !ac.Restricted {
		return shared.Predicate{}
	}
	sender := shared.Predicate{
		SQL: "EXISTS (SELECT 1 FROM postal_history_users pu " +
			"WHERE pu.postal_history_id = listing.id AND pu.user_id = ? AND pu.deleted_at IS NULL)",
		Args: []interface{}{ac.UserID},
	}
	return shared.OrPredicates(ac.ScopePredicate("listing.author_id"), sender)
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
func (s *Service) publishEvents(ctx context.Context, p *postal.PostalHistory) {
	events := p.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.bus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish postal history events",
			zap.String("postal_history_id", p.ID.String()),
			zap.Error(err))
	}
	p.ClearDomainEvents()
}
