package cachesync

import (
	"context"

	"github.com/forestcrm/backend/internal/domain/customer"
	"github.com/forestcrm/backend/internal/domain/forest"
	"github.com/forestcrm/backend/internal/domain/relation"
	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/forestcrm/backend/internal/domain/user"
	"go.uber.org/zap"
)

// CustomerChangedHandler refreshes every cache that reprs a customer's
// name: owner rollups on the forests the customer owns and participant
// rollups on linked consultation and mailing records. Creates need no
// fan-out since a new customer is not linked to anything yet.
type CustomerChangedHandler struct {
	service      *Service
	forestOwners relation.ForestCustomerRepository
	archiveLinks relation.ArchiveLinkRepository
	postalLinks  relation.PostalHistoryLinkRepository
	logger       *zap.Logger
}

// NewCustomerChangedHandler creates the handler
func NewCustomerChangedHandler(
	service *Service,
	forestOwners relation.ForestCustomerRepository,
	archiveLinks relation.ArchiveLinkRepository,
	postalLinks relation.PostalHistoryLinkRepository,
	logger *zap.Logger,
) *CustomerChangedHandler {
	return &CustomerChangedHandler{
		service:      service,
		forestOwners: forestOwners,
		archiveLinks: archiveLinks,
		postalLinks:  postalLinks,
		logger:       logger,
	}
}

// EventTypes returns the handled event types
func (h *CustomerChangedHandler) EventTypes() []string {
	return []string{customer.EventCustomerUpdated}
}

// Handle refreshes dependent caches after a customer change
func (h *CustomerChangedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	customerID := event.AggregateID()

	forestIDs, err := h.forestOwners.ForestIDsByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if len(forestIDs) > 0 {
		if err := h.service.RefreshForestOwnerCache(ctx, forestIDs); err != nil {
			return err
		}
	}

	archiveIDs, err := h.archiveLinks.ArchiveIDsByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if len(archiveIDs) > 0 {
		if err := h.service.RefreshArchiveCaches(ctx, archiveIDs); err != nil {
			return err
		}
	}

	postalIDs, err := h.postalLinks.PostalHistoryIDsByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if len(postalIDs) > 0 {
		if err := h.service.RefreshPostalHistoryCaches(ctx, postalIDs); err != nil {
			return err
		}
	}
	return nil
}

// UserChangedHandler refreshes the participant rollups on records the
// staff member is linked to after their display name changes.
type UserChangedHandler struct {
	service      *Service
	archiveLinks relation.ArchiveLinkRepository
	postalLinks  relation.PostalHistoryLinkRepository
	logger       *zap.Logger
}

// NewUserChangedHandler creates the handler
func NewUserChangedHandler(
	service *Service,
	archiveLinks relation.ArchiveLinkRepository,
	postalLinks relation.PostalHistoryLinkRepository,
	logger *zap.Logger,
) *UserChangedHandler {
	return &UserChangedHandler{
		service:      service,
		archiveLinks: archiveLinks,
		postalLinks:  postalLinks,
		logger:       logger,
	}
}

// EventTypes returns the handled event types
func (h *UserChangedHandler) EventTypes() []string {
	return []string{user.EventUserUpdated}
}

// Handle refreshes dependent caches after a user change
func (h *UserChangedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	userID := event.AggregateID()

	archiveIDs, err := h.archiveLinks.ArchiveIDsByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(archiveIDs) > 0 {
		if err := h.service.RefreshArchiveCaches(ctx, archiveIDs); err != nil {
			return err
		}
	}

	postalIDs, err := h.postalLinks.PostalHistoryIDsByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(postalIDs) > 0 {
		if err := h.service.RefreshPostalHistoryCaches(ctx, postalIDs); err != nil {
			return err
		}
	}
	return nil
}

// ForestChangedHandler refreshes the forest rollups on records linked
// to a parcel after its identifier changes.
type ForestChangedHandler struct {
	service      *Service
	archiveLinks relation.ArchiveLinkRepository
	postalLinks  relation.PostalHistoryLinkRepository
	logger       *zap.Logger
}

// NewForestChangedHandler creates the handler
func NewForestChangedHandler(
	service *Service,
	archiveLinks relation.ArchiveLinkRepository,
	postalLinks relation.PostalHistoryLinkRepository,
	logger *zap.Logger,
) *ForestChangedHandler {
	return &ForestChangedHandler{
		service:      service,
		archiveLinks: archiveLinks,
		postalLinks:  postalLinks,
		logger:       logger,
	}
}

// EventTypes returns the handled event types
func (h *ForestChangedHandler) EventTypes() []string {
	return []string{forest.EventForestUpdated}
}

// Handle refreshes dependent caches after a forest change
func (h *ForestChangedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	forestID := event.AggregateID()

	archiveIDs, err := h.archiveLinks.ArchiveIDsByForest(ctx, forestID)
	if err != nil {
		return err
	}
	if len(archiveIDs) > 0 {
		if err := h.service.RefreshArchiveCaches(ctx, archiveIDs); err != nil {
			return err
		}
	}

	postalIDs, err := h.postalLinks.PostalHistoryIDsByForest(ctx, forestID)
	if err != nil {
		return err
	}
	if len(postalIDs) > 0 {
		if err := h.service.RefreshPostalHistoryCaches(ctx, postalIDs); err != nil {
			return err
		}
	}
	return nil
}

// RegisterHandlers wires the fan-out handlers onto the event bus
func RegisterHandlers(
	bus shared.EventSubscriber,
	service *Service,
	forestOwners relation.ForestCustomerRepository,
	archiveLinks relation.ArchiveLinkRepository,
	postalLinks relation.PostalHistoryLinkRepository,
	logger *zap.Logger,
) {
	bus.Subscribe(NewCustomerChangedHandler(service, forestOwners, archiveLinks, postalLinks, logger), customer.EventCustomerUpdated)
	bus.Subscribe(NewUserChangedHandler(service, archiveLinks, postalLinks, logger), user.EventUserUpdated)
	bus.Subscribe(NewForestChangedHandler(service, archiveLinks, postalLinks, logger), forest.EventForestUpdated)
}

var _ shared.EventHandler = (*CustomerChangedHandler)(nil)
var _ shared.EventHandler = (*UserChangedHandler)(nil)
var _ shared.EventHandler = (*ForestChangedHandler)(nil)
