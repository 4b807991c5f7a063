// Package forest implements the application operations on forest
// parcels: CRUD, owner link management, listing and CSV export.
package forest

import (
	"context"
	"errors"
	"io"

	"github.com/forestcrm/backend/internal/application/cachesync"
	"github.com/forestcrm/backend/internal/application/listing"
	"github.com/forestcrm/backend/internal/domain/customer"
	"github.com/forestcrm/backend/internal/domain/forest"
	"github.com/forestcrm/backend/internal/domain/relation"
	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/forestcrm/backend/internal/domain/tag"
	csvimport "github.com/forestcrm/backend/internal/infrastructure/import"
	"github.com/forestcrm/backend/internal/infrastructure/taskqueue"
	"github.com/forestcrm/backend/internal/search"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles forest parcel operations
type Service struct {
	forests    forest.Repository
	customers  customer.Repository
	owners     relation.ForestCustomerRepository
	cache      *cachesync.Service
	dispatcher *taskqueue.Dispatcher
	bus        shared.EventPublisher
	logger     *zap.Logger
}

// NewService creates a forest service
func NewService(
	forests forest.Repository,
	customers customer.Repository,
	owners relation.ForestCustomerRepository,
	cache *cachesync.Service,
	dispatcher *taskqueue.Dispatcher,
	bus shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		forests:    forests,
		customers:  customers,
		owners:     owners,
		cache:      cache,
		dispatcher: dispatcher,
		bus:        bus,
		logger:     logger,
	}
}

// Create registers a forest parcel
func (s *Service) Create(ctx context.Context, req CreateForestRequest) (*forest.Forest, error) {
	existing, err := s.forests.FindByInternalID(ctx, req.InternalID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Forest with this internal id already exists")
	}

	f := forest.NewForest(req.InternalID, req.Cadastral)
	if req.LandAttributes != nil {
		f.LandAttributes = req.LandAttributes
	}
	f.SetContracts(req.Contracts)
	if !req.Area.IsZero() {
		if err := f.SetArea(req.Area); err != nil {
			return nil, err
		}
	}
	if req.Tags != nil {
		f.SetTags(req.Tags)
	}

	if err := s.forests.Save(ctx, f); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, f)
	return f, nil
}

// Get loads one parcel
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*forest.Forest, error) {
	return s.forests.FindByID(ctx, id)
}

// Update replaces a parcel's editable fields
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateForestRequest) (*forest.Forest, error) {
	f, err := s.forests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	f.UpdateBasicInfo(req.Cadastral, req.LandAttributes)
	f.SetContracts(req.Contracts)
	if err := f.SetArea(req.Area); err != nil {
		return nil, err
	}
	if req.Tags != nil {
		f.SetTags(req.Tags)
	}

	if err := s.forests.Save(ctx, f); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, f)
	return f, nil
}

// Delete soft-deletes a parcel
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.forests.Delete(ctx, id)
}

// List returns the filtered, ordered, paginated forest listing
func (s *Service) List(ctx context.Context, req listing.Request) (shared.Paginated[forest.ListRow], error) {
	query, err := req.ListQuery()
	if err != nil {
		return shared.Paginated[forest.ListRow]{}, err
	}
	pred := search.Compile(search.ForestMapping, req.Criteria)
	rows, total, err := s.forests.List(ctx, query, pred)
	if err != nil {
		return shared.Paginated[forest.ListRow]{}, err
	}
	return shared.NewPaginated(rows, total, query.PageNum, query.PerPage), nil
}

// csvHeader is the fixed export column order the office tooling expects
var csvHeader = []string{
	"林地ID", "市町村", "大字", "所有者氏名", "所有者カナ",
	"契約種別", "契約状況", "契約開始日", "契約終了日",
	"FSC認証状況", "FSC認証開始日", "タグ",
}

// ExportCSV streams the filtered listing as BOM-prefixed UTF-8 CSV
func (s *Service) ExportCSV(ctx context.Context, criteria map[string]string, w io.Writer) error {
	query := shared.ListQuery{ForCSV: true, OrderBy: []string{"internal_id"}}
	pred := search.Compile(search.ForestMapping, criteria)
	rows, _, err := s.forests.List(ctx, query, pred)
	if err != nil {
		return err
	}

	writer, err := csvimport.NewCSVWriter(w)
	if err != nil {
		return err
	}
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.InternalID,
			row.Municipality,
			row.Sector,
			row.OwnerNameKanji,
			row.OwnerNameKana,
			row.ContractType,
			row.ContractStatus,
			row.ContractStartDate,
			row.ContractEndDate,
			row.FSCStatus,
			row.FSCStartDate,
			csvTags(row.TagsRepr),
		})
	}
	return writer.WriteAll(csvHeader, records)
}

// csvTags converts the search repr "k:v,k:v" into the CSV cell format
func csvTags(repr string) string {
	tags := tag.ParseRepr(repr)
	if len(tags) == 0 {
		return ""
	}
	return tag.ToCSV(tags)
}

// AddOwner links a customer as owner of the parcel and rebuilds the
// owner cache synchronously so the listing repr is current on return
func (s *Service) AddOwner(ctx context.Context, forestID, customerID uuid.UUID, isDefault bool) error {
	if _, err := s.forests.FindByID(ctx, forestID); err != nil {
		return err
	}
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return err
	}

	existing, err := s.owners.FindActive(ctx, forestID, customerID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if existing != nil {
		return shared.NewDomainError("ALREADY_EXISTS", "Customer already owns this forest")
	}

	link := relation.NewForestCustomer(forestID, customerID)
	link.SetDefault(isDefault)
	if err := s.owners.Save(ctx, link); err != nil {
		return err
	}
	return s.cache.RefreshForestOwnerCache(ctx, []uuid.UUID{forestID})
}

// RemoveOwner tombstones the ownership link and rebuilds the owner cache
func (s *Service) RemoveOwner(ctx context.Context, forestID, customerID uuid.UUID) error {
	if err := s.owners.Tombstone(ctx, forestID, customerID); err != nil {
		return err
	}
	return s.cache.RefreshForestOwnerCache(ctx, []uuid.UUID{forestID})
}

// SetDefaultOwner marks one owner as the parcel's representative owner
func (s *Service) SetDefaultOwner(ctx context.Context, forestID, customerID uuid.UUID, isDefault bool) error {
	if err := s.owners.SetDefault(ctx, forestID, customerID, isDefault); err != nil {
		return err
	}
	return s.cache.RefreshForestOwnerCache(ctx, []uuid.UUID{forestID})
}

// UpdateTags replaces a parcel's tag map
func (s *Service) UpdateTags(ctx context.Context, id uuid.UUID, tags map[string]string) error {
	f, err := s.forests.FindByID(ctx, id)
	if err != nil {
		return err
	}
	f.SetTags(tags)
	return s.forests.Save(ctx, f)
}

// ReloadOwnerCache enqueues a background rebuild of one parcel's owner
// rollup and returns the task name for tracking
func (s *Service) ReloadOwnerCache(ctx context.Context, id uuid.UUID) (string, error) {
	if _, err := s.forests.FindByID(ctx, id); err != nil {
		return "", err
	}
	name := taskqueue.RandomTaskName("forest_owner_cache_reload")
	err := s.dispatcher.Enqueue(ctx, taskqueue.Task{
		Name: name,
		Run: func(taskCtx context.Context) error {
			return s.cache.RefreshForestOwnerCache(taskCtx, []uuid.UUID{id})
		},
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

// publishEvents flushes the aggregate's pending events onto the bus. A
// failed publish only loses a cache refresh, never the write itself.
func (s *Service) publishEvents(ctx context.Context, f *forest.Forest) {
	events := f.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.bus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish forest events",
			zap.String("forest_id", f.ID.String()),
			zap.Error(err))
	}
	f.ClearDomainEvents()
}
