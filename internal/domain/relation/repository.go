package relation

import (
	"context"

	"github.com/forestcrm/backend/internal/domain/repcache"
	"github.com/google/uuid"
)

// ForestCustomerRepository manages forest ownership links and the
// projections the forest owner cache is rebuilt from.
type ForestCustomerRepository interface {
	Save(ctx context.Context, link *ForestCustomer) error
	FindActive(ctx context.Context, forestID, customerID uuid.UUID) (*ForestCustomer, error)
	// Tombstone soft-deletes the link, keeping it for audit
	Tombstone(ctx context.Context, forestID, customerID uuid.UUID) error
	// Purge physically removes tombstoned links for the forest
	Purge(ctx context.Context, forestID uuid.UUID) error
	// ActiveOwnersByForest returns one entry per active ownership link,
	// representative owners first, then oldest link first. Names come
	// from each customer's basic contact.
	ActiveOwnersByForest(ctx context.Context, forestID uuid.UUID) ([]repcache.KeyedOwnerEntry, error)
	// ForestIDsByCustomer returns ids of forests the customer owns,
	// used to fan out customer changes into forest owner caches
	ForestIDsByCustomer(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error)
	SetDefault(ctx context.Context, forestID, customerID uuid.UUID, isDefault bool) error
}

// CustomerContactRepository manages customer-to-contact links
type CustomerContactRepository interface {
	Save(ctx context.Context, link *CustomerContact) error
	FindActive(ctx context.Context, customerID, contactID uuid.UUID) (*CustomerContact, error)
	Tombstone(ctx context.Context, customerID, contactID uuid.UUID) error
	Purge(ctx context.Context, customerID uuid.UUID) error
	SaveForestScope(ctx context.Context, link *ForestCustomerContact) error
	TombstoneForestScope(ctx context.Context, forestCustomerID, customerContactID uuid.UUID) error
}

// ArchiveLinkRepository manages consultation record associations and
// the projections the archive rollup caches are rebuilt from.
type ArchiveLinkRepository interface {
	SaveForestLinks(ctx context.Context, archiveID uuid.UUID, forestIDs []uuid.UUID) error
	SaveCustomerLinks(ctx context.Context, archiveID uuid.UUID, customerIDs []uuid.UUID) error
	SaveUserLinks(ctx context.Context, archiveID uuid.UUID, userIDs []uuid.UUID) error
	TombstoneForestLink(ctx context.Context, archiveID, forestID uuid.UUID) error
	TombstoneCustomerLink(ctx context.Context, archiveID, customerID uuid.UUID) error
	TombstoneUserLink(ctx context.Context, archiveID, userID uuid.UUID) error

	ActiveForestsByArchive(ctx context.Context, archiveID uuid.UUID) ([]repcache.ForestEntry, error)
	ActiveCustomersByArchive(ctx context.Context, archiveID uuid.UUID) ([]repcache.CustomerEntry, error)
	ActiveUsersByArchive(ctx context.Context, archiveID uuid.UUID) ([]repcache.UserEntry, error)

	// Active target id sets, used to merge additions into the link set
	ActiveForestIDs(ctx context.Context, archiveID uuid.UUID) ([]uuid.UUID, error)
	ActiveCustomerIDs(ctx context.Context, archiveID uuid.UUID) ([]uuid.UUID, error)
	ActiveUserIDs(ctx context.Context, archiveID uuid.UUID) ([]uuid.UUID, error)

	// Reverse lookups used to fan out entity changes into record caches
	ArchiveIDsByForest(ctx context.Context, forestID uuid.UUID) ([]uuid.UUID, error)
	ArchiveIDsByCustomer(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error)
	ArchiveIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// PostalHistoryLinkRepository manages mailing record associations and
// the projections the postal rollup caches are rebuilt from.
type PostalHistoryLinkRepository interface {
	SaveForestLinks(ctx context.Context, postalHistoryID uuid.UUID, forestIDs []uuid.UUID) error
	SaveCustomerLinks(ctx context.Context, postalHistoryID uuid.UUID, customerIDs []uuid.UUID) error
	SaveUserLinks(ctx context.Context, postalHistoryID uuid.UUID, userIDs []uuid.UUID) error
	TombstoneForestLink(ctx context.Context, postalHistoryID, forestID uuid.UUID) error
	TombstoneCustomerLink(ctx context.Context, postalHistoryID, customerID uuid.UUID) error
	TombstoneUserLink(ctx context.Context, postalHistoryID, userID uuid.UUID) error

	ActiveForestsByPostalHistory(ctx context.Context, postalHistoryID uuid.UUID) ([]repcache.ForestEntry, error)
	ActiveCustomersByPostalHistory(ctx context.Context, postalHistoryID uuid.UUID) ([]repcache.CustomerEntry, error)
	ActiveUsersByPostalHistory(ctx context.Context, postalHistoryID uuid.UUID) ([]repcache.UserEntry, error)

	// Active target id sets, used to merge additions into the link set
	ActiveForestIDs(ctx context.Context, postalHistoryID uuid.UUID) ([]uuid.UUID, error)
	ActiveCustomerIDs(ctx context.Context, postalHistoryID uuid.UUID) ([]uuid.UUID, error)
	ActiveUserIDs(ctx context.Context, postalHistoryID uuid.UUID) ([]uuid.UUID, error)

	PostalHistoryIDsByForest(ctx context.Context, forestID uuid.UUID) ([]uuid.UUID, error)
	PostalHistoryIDsByCustomer(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error)
	PostalHistoryIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
