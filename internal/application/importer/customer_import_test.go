package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/forestcrm/backend/internal/application/cachesync"
	"github.com/forestcrm/backend/internal/domain/customer"
	"github.com/forestcrm/backend/internal/domain/forest"
	"github.com/forestcrm/backend/internal/domain/relation"
	"github.com/forestcrm/backend/internal/domain/repcache"
	"github.com/forestcrm/backend/internal/domain/shared"
	csvimport "github.com/forestcrm/backend/internal/infrastructure/import"
	"github.com/forestcrm/backend/internal/infrastructure/taskqueue"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCustomerRepo keeps customers and contacts in memory
type fakeCustomerRepo struct {
	byBusinessID map[string]*customer.Customer
	selfContacts map[uuid.UUID]*customer.Contact
	locked       map[string]bool
	saved        int
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{
		byBusinessID: map[string]*customer.Customer{},
		selfContacts: map[uuid.UUID]*customer.Contact{},
		locked:       map[string]bool{},
	}
}

func (f *fakeCustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	for _, c := range f.byBusinessID {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, shared.NewNotFoundError("Customer")
}

func (f *fakeCustomerRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]customer.Customer, error) {
	return nil, nil
}

func (f *fakeCustomerRepo) FindByBusinessID(ctx context.Context, businessID string) (*customer.Customer, error) {
	if c, ok := f.byBusinessID[businessID]; ok {
		return c, nil
	}
	return nil, shared.NewNotFoundError("Customer")
}

func (f *fakeCustomerRepo) FindByBusinessIDForUpdateNoWait(ctx context.Context, businessID string) (*customer.Customer, error) {
	if f.locked[businessID] {
		return nil, shared.ErrResourcesNotReady
	}
	return f.FindByBusinessID(ctx, businessID)
}

func (f *fakeCustomerRepo) SelfContact(ctx context.Context, customerID uuid.UUID) (*customer.Contact, error) {
	if c, ok := f.selfContacts[customerID]; ok {
		return c, nil
	}
	return nil, shared.NewNotFoundError("Contact")
}

func (f *fakeCustomerRepo) Save(ctx context.Context, c *customer.Customer) error {
	f.byBusinessID[c.BusinessID] = c
	f.saved++
	return nil
}

func (f *fakeCustomerRepo) SaveContact(ctx context.Context, contact *customer.Contact) error {
	return nil
}

func (f *fakeCustomerRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeCustomerRepo) List(ctx context.Context, q shared.ListQuery, pred shared.Predicate) ([]customer.ListRow, int64, error) {
	return nil, 0, nil
}

// fakeForestRepo resolves parcels by internal id
type fakeForestRepo struct {
	byInternalID map[string]*forest.Forest
	savedAttrs   []uuid.UUID
}

func (f *fakeForestRepo) FindByID(ctx context.Context, id uuid.UUID) (*forest.Forest, error) {
	for _, p := range f.byInternalID {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, shared.NewNotFoundError("Forest")
}

func (f *fakeForestRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*forest.Forest, error) {
	var out []*forest.Forest
	for _, id := range ids {
		for _, p := range f.byInternalID {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakeForestRepo) FindByInternalID(ctx context.Context, internalID string) (*forest.Forest, error) {
	if p, ok := f.byInternalID[internalID]; ok {
		return p, nil
	}
	return nil, shared.NewNotFoundError("Forest")
}

func (f *fakeForestRepo) Save(ctx context.Context, p *forest.Forest) error { return nil }

func (f *fakeForestRepo) SaveAttributes(ctx context.Context, p *forest.Forest) error {
	f.savedAttrs = append(f.savedAttrs, p.ID)
	return nil
}

func (f *fakeForestRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeForestRepo) List(ctx context.Context, query shared.ListQuery, filter shared.Predicate) ([]forest.ListRow, int64, error) {
	return nil, 0, nil
}

// fakeContactLinks records saved customer-contact links
type fakeContactLinks struct {
	saved []*relation.CustomerContact
}

func (f *fakeContactLinks) Save(ctx context.Context, link *relation.CustomerContact) error {
	f.saved = append(f.saved, link)
	return nil
}

func (f *fakeContactLinks) FindActive(ctx context.Context, customerID, contactID uuid.UUID) (*relation.CustomerContact, error) {
	return nil, shared.NewNotFoundError("CustomerContact")
}

func (f *fakeContactLinks) Tombstone(ctx context.Context, customerID, contactID uuid.UUID) error {
	return nil
}

func (f *fakeContactLinks) Purge(ctx context.Context, customerID uuid.UUID) error { return nil }

func (f *fakeContactLinks) SaveForestScope(ctx context.Context, link *relation.ForestCustomerContact) error {
	return nil
}

func (f *fakeContactLinks) TombstoneForestScope(ctx context.Context, forestCustomerID, customerContactID uuid.UUID) error {
	return nil
}

// fakeOwnerLinks records saved ownership links
type fakeOwnerLinks struct {
	saved []*relation.ForestCustomer
}

func (f *fakeOwnerLinks) Save(ctx context.Context, link *relation.ForestCustomer) error {
	f.saved = append(f.saved, link)
	return nil
}

func (f *fakeOwnerLinks) FindActive(ctx context.Context, forestID, customerID uuid.UUID) (*relation.ForestCustomer, error) {
	for _, link := range f.saved {
		if link.ForestID == forestID && link.CustomerID == customerID {
			return link, nil
		}
	}
	return nil, shared.NewNotFoundError("ForestCustomer")
}

func (f *fakeOwnerLinks) Tombstone(ctx context.Context, forestID, customerID uuid.UUID) error {
	return nil
}

func (f *fakeOwnerLinks) Purge(ctx context.Context, forestID uuid.UUID) error { return nil }

func (f *fakeOwnerLinks) ActiveOwnersByForest(ctx context.Context, forestID uuid.UUID) ([]repcache.KeyedOwnerEntry, error) {
	return nil, nil
}

func (f *fakeOwnerLinks) ForestIDsByCustomer(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, link := range f.saved {
		if link.CustomerID == customerID {
			ids = append(ids, link.ForestID)
		}
	}
	return ids, nil
}

func (f *fakeOwnerLinks) SetDefault(ctx context.Context, forestID, customerID uuid.UUID, isDefault bool) error {
	return nil
}

type importFixture struct {
	importer   *CustomerImporter
	customers  *fakeCustomerRepo
	forests    *fakeForestRepo
	contacts   *fakeContactLinks
	owners     *fakeOwnerLinks
	dispatcher *taskqueue.Dispatcher
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	customers := newFakeCustomerRepo()
	forests := &fakeForestRepo{byInternalID: map[string]*forest.Forest{}}
	contacts := &fakeContactLinks{}
	owners := &fakeOwnerLinks{}
	logger := zap.NewNop()

	cache := cachesync.NewService(forests, nil, nil, owners, nil, nil, logger)
	dispatcher := taskqueue.NewDispatcher(taskqueue.Config{Workers: 1, QueueSize: 8}, taskqueue.NewInMemoryDedupStore(), logger)
	dispatcher.Start()
	t.Cleanup(dispatcher.Stop)

	return &importFixture{
		importer:   NewCustomerImporter(customers, forests, contacts, owners, cache, dispatcher, logger),
		customers:  customers,
		forests:    forests,
		contacts:   contacts,
		owners:     owners,
		dispatcher: dispatcher,
	}
}

const importHeader = "事業者ID,顧客ID,姓,名,セイ,メイ,郵便番号,メールアドレス,タグ,林地ID\n"

func TestCustomerImport(t *testing.T) {
	t.Run("creates a customer with self contact and owner link", func(t *testing.T) {
		fx := newImportFixture(t)
		f := forest.NewForest("1001", forest.Cadastral{})
		fx.forests.byInternalID["1001"] = f

		csv := importHeader +
			"B-001,C-001,山田,太郎,ヤマダ,タロウ,100-0001,taro@example.jp,種別:個人,1001\n"
		result, err := fx.importer.Import(context.Background(), strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 1, result.Created)
		assert.Equal(t, 0, result.Updated)
		assert.NotEmpty(t, result.TaskName)

		c := fx.customers.byBusinessID["B-001"]
		require.NotNil(t, c)
		assert.Equal(t, "C-001", c.InternalID)
		assert.Equal(t, "個人", c.Tags["種別"])
		require.Len(t, fx.contacts.saved, 1)
		assert.True(t, fx.contacts.saved[0].IsBasic)
		require.Len(t, fx.owners.saved, 1)
		assert.Equal(t, f.ID, fx.owners.saved[0].ForestID)
	})

	t.Run("updates an existing customer by business id", func(t *testing.T) {
		fx := newImportFixture(t)
		existing := customer.NewCustomer("C-001", "B-001")
		fx.customers.byBusinessID["B-001"] = existing

		csv := importHeader + "B-001,C-001,山田,次郎,,,,,,\n"
		result, err := fx.importer.Import(context.Background(), strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 0, result.Created)
		assert.Equal(t, 1, result.Updated)
	})

	t.Run("refreshes owner caches of forests already linked to an updated customer", func(t *testing.T) {
		fx := newImportFixture(t)
		f := forest.NewForest("1001", forest.Cadastral{})
		fx.forests.byInternalID["1001"] = f
		existing := customer.NewCustomer("C-001", "B-001")
		fx.customers.byBusinessID["B-001"] = existing
		fx.owners.saved = append(fx.owners.saved, relation.NewForestCustomer(f.ID, existing.ID))

		// the row renames the customer without touching the forest column
		csv := importHeader + "B-001,C-001,山田,次郎,,,,,,\n"
		result, err := fx.importer.Import(context.Background(), strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 1, result.Updated)
		// the rename leaves the existing parcel's rollup stale, so a
		// rebuild task must be enqueued even with no new links
		assert.NotEmpty(t, result.TaskName)
	})

	t.Run("rejects a file missing required columns", func(t *testing.T) {
		fx := newImportFixture(t)
		_, err := fx.importer.Import(context.Background(), strings.NewReader("顧客ID,名\nC-001,太郎\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "事業者ID")
	})

	t.Run("stops at the first bad row with its line number", func(t *testing.T) {
		fx := newImportFixture(t)
		csv := importHeader +
			"B-001,C-001,山田,太郎,,,,,,\n" +
			"B-002,C-002,,花子,,,,,,\n"
		_, err := fx.importer.Import(context.Background(), strings.NewReader(csv))
		require.Error(t, err)

		rowErr, ok := err.(*csvimport.RowError)
		require.True(t, ok)
		assert.Equal(t, 3, rowErr.Line)
		assert.Contains(t, rowErr.Fields, "姓")
		// the first row still imported
		assert.NotNil(t, fx.customers.byBusinessID["B-001"])
		assert.Nil(t, fx.customers.byBusinessID["B-002"])
	})

	t.Run("reports an invalid email against its column", func(t *testing.T) {
		fx := newImportFixture(t)
		csv := importHeader + "B-001,C-001,山田,太郎,,,,not-an-email,,\n"
		_, err := fx.importer.Import(context.Background(), strings.NewReader(csv))
		require.Error(t, err)

		rowErr, ok := err.(*csvimport.RowError)
		require.True(t, ok)
		assert.Contains(t, rowErr.Fields, "メールアドレス")
	})

	t.Run("reports an unknown forest id against its column", func(t *testing.T) {
		fx := newImportFixture(t)
		csv := importHeader + "B-001,C-001,山田,太郎,,,,,,9999\n"
		_, err := fx.importer.Import(context.Background(), strings.NewReader(csv))
		require.Error(t, err)

		rowErr, ok := err.(*csvimport.RowError)
		require.True(t, ok)
		assert.Contains(t, rowErr.Fields, "林地ID")
	})

	t.Run("fails fast when the row is locked by another import", func(t *testing.T) {
		fx := newImportFixture(t)
		existing := customer.NewCustomer("C-001", "B-001")
		fx.customers.byBusinessID["B-001"] = existing
		fx.customers.locked["B-001"] = true

		csv := importHeader + "B-001,C-001,山田,太郎,,,,,,\n"
		_, err := fx.importer.Import(context.Background(), strings.NewReader(csv))
		require.ErrorIs(t, err, shared.ErrResourcesNotReady)
	})

	t.Run("rejects a malformed tag cell", func(t *testing.T) {
		fx := newImportFixture(t)
		csv := importHeader + "B-001,C-001,山田,太郎,,,,,badtag,\n"
		_, err := fx.importer.Import(context.Background(), strings.NewReader(csv))
		require.Error(t, err)

		rowErr, ok := err.(*csvimport.RowError)
		require.True(t, ok)
		assert.Contains(t, rowErr.Fields, "タグ")
	})
}
