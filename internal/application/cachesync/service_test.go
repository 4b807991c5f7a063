package cachesync

import (
	"context"
	"errors"
	"testing"

	"github.com/forestcrm/backend/internal/domain/archive"
	"github.com/forestcrm/backend/internal/domain/customer"
	"github.com/forestcrm/backend/internal/domain/forest"
	"github.com/forestcrm/backend/internal/domain/postal"
	"github.com/forestcrm/backend/internal/domain/relation"
	"github.com/forestcrm/backend/internal/domain/repcache"
	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeForestRepo keeps parcels in memory and records attribute saves
type fakeForestRepo struct {
	forests    []*forest.Forest
	savedAttrs []uuid.UUID
}

func (f *fakeForestRepo) FindByID(ctx context.Context, id uuid.UUID) (*forest.Forest, error) {
	for _, p := range f.forests {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, shared.NewNotFoundError("Forest")
}

func (f *fakeForestRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*forest.Forest, error) {
	if len(ids) == 0 {
		return f.forests, nil
	}
	out := make([]*forest.Forest, 0, len(ids))
	for _, id := range ids {
		for _, p := range f.forests {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakeForestRepo) FindByInternalID(ctx context.Context, internalID string) (*forest.Forest, error) {
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

// fakeOwnerRepo serves owner projections per forest
type fakeOwnerRepo struct {
	owners     map[uuid.UUID][]repcache.KeyedOwnerEntry
	ownerErr   map[uuid.UUID]error
	byCustomer map[uuid.UUID][]uuid.UUID
}

func (f *fakeOwnerRepo) Save(ctx context.Context, link *relation.ForestCustomer) error { return nil }

func (f *fakeOwnerRepo) FindActive(ctx context.Context, forestID, customerID uuid.UUID) (*relation.ForestCustomer, error) {
	return nil, shared.NewNotFoundError("ForestCustomer")
}

func (f *fakeOwnerRepo) Tombstone(ctx context.Context, forestID, customerID uuid.UUID) error {
	return nil
}

func (f *fakeOwnerRepo) Purge(ctx context.Context, forestID uuid.UUID) error { return nil }

func (f *fakeOwnerRepo) ActiveOwnersByForest(ctx context.Context, forestID uuid.UUID) ([]repcache.KeyedOwnerEntry, error) {
	if err := f.ownerErr[forestID]; err != nil {
		return nil, err
	}
	return f.owners[forestID], nil
}

func (f *fakeOwnerRepo) ForestIDsByCustomer(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error) {
	return f.byCustomer[customerID], nil
}

func (f *fakeOwnerRepo) SetDefault(ctx context.Context, forestID, customerID uuid.UUID, isDefault bool) error {
	return nil
}

// fakeArchiveRepo keeps records in memory and records attribute saves
type fakeArchiveRepo struct {
	archives   []*archive.Archive
	savedAttrs []uuid.UUID
}

func (f *fakeArchiveRepo) FindByID(ctx context.Context, id uuid.UUID) (*archive.Archive, error) {
	for _, a := range f.archives {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, shared.NewNotFoundError("Archive")
}

func (f *fakeArchiveRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*archive.Archive, error) {
	if len(ids) == 0 {
		return f.archives, nil
	}
	out := make([]*archive.Archive, 0, len(ids))
	for _, id := range ids {
		for _, a := range f.archives {
			if a.ID == id {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (f *fakeArchiveRepo) Save(ctx context.Context, a *archive.Archive) error { return nil }

func (f *fakeArchiveRepo) SaveAttributes(ctx context.Context, a *archive.Archive) error {
	f.savedAttrs = append(f.savedAttrs, a.ID)
	return nil
}

func (f *fakeArchiveRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeArchiveRepo) List(ctx context.Context, query shared.ListQuery, filter shared.Predicate) ([]archive.ListRow, int64, error) {
	return nil, 0, nil
}

// fakePostalRepo keeps records in memory and records attribute saves
type fakePostalRepo struct {
	records    []*postal.PostalHistory
	savedAttrs []uuid.UUID
}

func (f *fakePostalRepo) FindByID(ctx context.Context, id uuid.UUID) (*postal.PostalHistory, error) {
	for _, p := range f.records {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, shared.NewNotFoundError("PostalHistory")
}

func (f *fakePostalRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*postal.PostalHistory, error) {
	if len(ids) == 0 {
		return f.records, nil
	}
	out := make([]*postal.PostalHistory, 0, len(ids))
	for _, id := range ids {
		for _, p := range f.records {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakePostalRepo) Save(ctx context.Context, p *postal.PostalHistory) error { return nil }

func (f *fakePostalRepo) SaveAttributes(ctx context.Context, p *postal.PostalHistory) error {
	f.savedAttrs = append(f.savedAttrs, p.ID)
	return nil
}

func (f *fakePostalRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakePostalRepo) List(ctx context.Context, query shared.ListQuery, filter shared.Predicate) ([]postal.ListRow, int64, error) {
	return nil, 0, nil
}

// fakeArchiveLinks serves association projections per archive
type fakeArchiveLinks struct {
	forests   map[uuid.UUID][]repcache.ForestEntry
	customers map[uuid.UUID][]repcache.CustomerEntry
	users     map[uuid.UUID][]repcache.UserEntry

	byForest   map[uuid.UUID][]uuid.UUID
	byCustomer map[uuid.UUID][]uuid.UUID
	byUser     map[uuid.UUID][]uuid.UUID
}

func (f *fakeArchiveLinks) SaveForestLinks(ctx context.Context, archiveID uuid.UUID, forestIDs []uuid.UUID) error {
	return nil
}

func (f *fakeArchiveLinks) SaveCustomerLinks(ctx context.Context, archiveID uuid.UUID, customerIDs []uuid.UUID) error {
	return nil
}

func (f *fakeArchiveLinks) SaveUserLinks(ctx context.Context, archiveID uuid.UUID, userIDs []uuid.UUID) error {
	return nil
}

func (f *fakeArchiveLinks) TombstoneForestLink(ctx context.Context, archiveID, forestID uuid.UUID) error {
	return nil
}

func (f *fakeArchiveLinks) TombstoneCustomerLink(ctx context.Context, archiveID, customerID uuid.UUID) error {
	return nil
}

func (f *fakeArchiveLinks) TombstoneUserLink(ctx context.Context, archiveID, userID uuid.UUID) error {
	return nil
}

func (f *fakeArchiveLinks) ActiveForestsByArchive(ctx context.Context, archiveID uuid.UUID) ([]repcache.ForestEntry, error) {
	return f.forests[archiveID], nil
}

func (f *fakeArchiveLinks) ActiveCustomersByArchive(ctx context.Context, archiveID uuid.UUID) ([]repcache.CustomerEntry, error) {
	return f.customers[archiveID], nil
}

func (f *fakeArchiveLinks) ActiveUsersByArchive(ctx context.Context, archiveID uuid.UUID) ([]repcache.UserEntry, error) {
	return f.users[archiveID], nil
}

func (f *fakeArchiveLinks) ActiveForestIDs(ctx context.Context, archiveID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeArchiveLinks) ActiveCustomerIDs(ctx context.Context, archiveID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeArchiveLinks) ActiveUserIDs(ctx context.Context, archiveID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeArchiveLinks) ArchiveIDsByForest(ctx context.Context, forestID uuid.UUID) ([]uuid.UUID, error) {
	return f.byForest[forestID], nil
}

func (f *fakeArchiveLinks) ArchiveIDsByCustomer(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error) {
	return f.byCustomer[customerID], nil
}

func (f *fakeArchiveLinks) ArchiveIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return f.byUser[userID], nil
}

// fakePostalLinks serves association projections per mailing record
type fakePostalLinks struct {
	forests   map[uuid.UUID][]repcache.ForestEntry
	customers map[uuid.UUID][]repcache.CustomerEntry
	users     map[uuid.UUID][]repcache.UserEntry

	byForest   map[uuid.UUID][]uuid.UUID
	byCustomer map[uuid.UUID][]uuid.UUID
	byUser     map[uuid.UUID][]uuid.UUID
}

func (f *fakePostalLinks) SaveForestLinks(ctx context.Context, postalHistoryID uuid.UUID, forestIDs []uuid.UUID) error {
	return nil
}

func (f *fakePostalLinks) SaveCustomerLinks(ctx context.Context, postalHistoryID uuid.UUID, customerIDs []uuid.UUID) error {
	return nil
}

func (f *fakePostalLinks) SaveUserLinks(ctx context.Context, postalHistoryID uuid.UUID, userIDs []uuid.UUID) error {
	return nil
}

func (f *fakePostalLinks) TombstoneForestLink(ctx context.Context, postalHistoryID, forestID uuid.UUID) error {
	return nil
}

func (f *fakePostalLinks) TombstoneCustomerLink(ctx context.Context, postalHistoryID, customerID uuid.UUID) error {
	return nil
}

func (f *fakePostalLinks) TombstoneUserLink(ctx context.Context, postalHistoryID, userID uuid.UUID) error {
	return nil
}

func (f *fakePostalLinks) ActiveForestsByPostalHistory(ctx context.Context, postalHistoryID uuid.UUID) ([]repcache.ForestEntry, error) {
	return f.forests[postalHistoryID], nil
}

func (f *fakePostalLinks) ActiveCustomersByPostalHistory(ctx context.Context, postalHistoryID uuid.UUID) ([]repcache.CustomerEntry, error) {
	return f.customers[postalHistoryID], nil
}

func (f *fakePostalLinks) ActiveUsersByPostalHistory(ctx context.Context, postalHistoryID uuid.UUID) ([]repcache.UserEntry, error) {
	return f.users[postalHistoryID], nil
}

func (f *fakePostalLinks) ActiveForestIDs(ctx context.Context, postalHistoryID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakePostalLinks) ActiveCustomerIDs(ctx context.Context, postalHistoryID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakePostalLinks) ActiveUserIDs(ctx context.Context, postalHistoryID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakePostalLinks) PostalHistoryIDsByForest(ctx context.Context, forestID uuid.UUID) ([]uuid.UUID, error) {
	return f.byForest[forestID], nil
}

func (f *fakePostalLinks) PostalHistoryIDsByCustomer(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error) {
	return f.byCustomer[customerID], nil
}

func (f *fakePostalLinks) PostalHistoryIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return f.byUser[userID], nil
}

func newTestService(
	forests *fakeForestRepo,
	archives *fakeArchiveRepo,
	postals *fakePostalRepo,
	owners *fakeOwnerRepo,
	archiveLinks *fakeArchiveLinks,
	postalLinks *fakePostalLinks,
) *Service {
	return NewService(forests, archives, postals, owners, archiveLinks, postalLinks, zap.NewNop())
}

func emptyArchiveLinks() *fakeArchiveLinks {
	return &fakeArchiveLinks{
		forests:   map[uuid.UUID][]repcache.ForestEntry{},
		customers: map[uuid.UUID][]repcache.CustomerEntry{},
		users:     map[uuid.UUID][]repcache.UserEntry{},
	}
}

func emptyPostalLinks() *fakePostalLinks {
	return &fakePostalLinks{
		forests:   map[uuid.UUID][]repcache.ForestEntry{},
		customers: map[uuid.UUID][]repcache.CustomerEntry{},
		users:     map[uuid.UUID][]repcache.UserEntry{},
	}
}

func TestRefreshForestOwnerCache(t *testing.T) {
	t.Run("writes the owner rollup and persists attributes", func(t *testing.T) {
		f := forest.NewForest("1001", forest.Cadastral{Municipality: "山町"})
		customerID := uuid.New()
		owners := &fakeOwnerRepo{
			owners: map[uuid.UUID][]repcache.KeyedOwnerEntry{
				f.ID: {
					{CustomerID: customerID, Entry: repcache.OwnerEntry{
						Default:   true,
						ContactID: uuid.New(),
						NameKanji: "山田 太郎",
						NameKana:  "ヤマダ タロウ",
					}},
				},
			},
		}
		forests := &fakeForestRepo{forests: []*forest.Forest{f}}
		svc := newTestService(forests, &fakeArchiveRepo{}, &fakePostalRepo{}, owners, emptyArchiveLinks(), emptyPostalLinks())

		err := svc.RefreshForestOwnerCache(context.Background(), []uuid.UUID{f.ID})
		require.NoError(t, err)
		require.Equal(t, []uuid.UUID{f.ID}, forests.savedAttrs)

		cache := f.Attributes.GetMap(repcache.KeyCustomerCache)
		require.NotNil(t, cache)
		assert.Equal(t, "山田 太郎", cache["repr_name_kanji"])
		assert.Equal(t, "ヤマダ タロウ", cache["repr_name_kana"])
		list, ok := cache["list"].(map[string]interface{})
		require.True(t, ok)
		require.Contains(t, list, customerID.String())
	})

	t.Run("empty id slice refreshes every parcel", func(t *testing.T) {
		f1 := forest.NewForest("1001", forest.Cadastral{})
		f2 := forest.NewForest("1002", forest.Cadastral{})
		forests := &fakeForestRepo{forests: []*forest.Forest{f1, f2}}
		owners := &fakeOwnerRepo{owners: map[uuid.UUID][]repcache.KeyedOwnerEntry{}}
		svc := newTestService(forests, &fakeArchiveRepo{}, &fakePostalRepo{}, owners, emptyArchiveLinks(), emptyPostalLinks())

		err := svc.RefreshForestOwnerCache(context.Background(), nil)
		require.NoError(t, err)
		assert.Len(t, forests.savedAttrs, 2)
	})

	t.Run("a failed parcel is skipped and the batch continues", func(t *testing.T) {
		f1 := forest.NewForest("1001", forest.Cadastral{})
		f2 := forest.NewForest("1002", forest.Cadastral{})
		forests := &fakeForestRepo{forests: []*forest.Forest{f1, f2}}
		owners := &fakeOwnerRepo{
			owners:   map[uuid.UUID][]repcache.KeyedOwnerEntry{},
			ownerErr: map[uuid.UUID]error{f1.ID: errors.New("connection reset")},
		}
		svc := newTestService(forests, &fakeArchiveRepo{}, &fakePostalRepo{}, owners, emptyArchiveLinks(), emptyPostalLinks())

		err := svc.RefreshForestOwnerCache(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{f2.ID}, forests.savedAttrs)
	})
}

func TestRefreshArchiveCaches(t *testing.T) {
	a, err := archive.NewArchive("境界確認の打合せ", nil)
	require.NoError(t, err)

	links := emptyArchiveLinks()
	links.forests[a.ID] = []repcache.ForestEntry{{InternalID: "1001"}, {InternalID: "1002"}}
	links.customers[a.ID] = []repcache.CustomerEntry{
		{CustomerID: uuid.New(), NameKanji: "山田 太郎", NameKana: "ヤマダ タロウ"},
	}
	links.users[a.ID] = []repcache.UserEntry{{UserID: uuid.New(), FullName: "佐藤 花子"}}

	archives := &fakeArchiveRepo{archives: []*archive.Archive{a}}
	svc := newTestService(&fakeForestRepo{}, archives, &fakePostalRepo{}, &fakeOwnerRepo{}, links, emptyPostalLinks())

	require.NoError(t, svc.RefreshArchiveCaches(context.Background(), []uuid.UUID{a.ID}))
	require.Equal(t, []uuid.UUID{a.ID}, archives.savedAttrs)

	forestCache := a.Attributes.GetMap(repcache.KeyForestCache)
	require.NotNil(t, forestCache)
	assert.Equal(t, float64(2), forestCache["count"])
	assert.Equal(t, "1001,1002", forestCache["repr"])

	customerCache := a.Attributes.GetMap(repcache.KeyCustomerCache)
	require.NotNil(t, customerCache)
	assert.Equal(t, "山田 太郎", customerCache["repr"])

	userCache := a.Attributes.GetMap(repcache.KeyUserCache)
	require.NotNil(t, userCache)
	assert.Equal(t, "佐藤 花子", userCache["repr"])
}

func TestRefreshPostalHistoryCaches(t *testing.T) {
	p, err := postal.NewPostalHistory("間伐のお知らせ", nil)
	require.NoError(t, err)

	links := emptyPostalLinks()
	links.customers[p.ID] = []repcache.CustomerEntry{
		{CustomerID: uuid.New(), NameKanji: "山田 太郎"},
		{CustomerID: uuid.New(), NameKanji: "鈴木 一郎"},
	}

	postals := &fakePostalRepo{records: []*postal.PostalHistory{p}}
	svc := newTestService(&fakeForestRepo{}, &fakeArchiveRepo{}, postals, &fakeOwnerRepo{}, emptyArchiveLinks(), links)

	require.NoError(t, svc.RefreshPostalHistoryCaches(context.Background(), nil))
	require.Equal(t, []uuid.UUID{p.ID}, postals.savedAttrs)

	cache := p.Attributes.GetMap(repcache.KeyCustomerCache)
	require.NotNil(t, cache)
	assert.Equal(t, "山田 太郎,鈴木 一郎", cache["repr"])
	assert.Equal(t, float64(2), cache["count"])
}

func TestCustomerChangedHandler(t *testing.T) {
	c := customer.NewCustomer("2001", "B-2001")
	f := forest.NewForest("1001", forest.Cadastral{})
	a, err := archive.NewArchive("面談", nil)
	require.NoError(t, err)

	owners := &fakeOwnerRepo{
		owners:     map[uuid.UUID][]repcache.KeyedOwnerEntry{},
		byCustomer: map[uuid.UUID][]uuid.UUID{c.ID: {f.ID}},
	}
	archiveLinks := emptyArchiveLinks()
	archiveLinks.byCustomer = map[uuid.UUID][]uuid.UUID{c.ID: {a.ID}}
	postalLinks := emptyPostalLinks()
	postalLinks.byCustomer = map[uuid.UUID][]uuid.UUID{}

	forests := &fakeForestRepo{forests: []*forest.Forest{f}}
	archives := &fakeArchiveRepo{archives: []*archive.Archive{a}}
	svc := newTestService(forests, archives, &fakePostalRepo{}, owners, archiveLinks, postalLinks)
	handler := NewCustomerChangedHandler(svc, owners, archiveLinks, postalLinks, zap.NewNop())

	assert.Equal(t, []string{customer.EventCustomerUpdated}, handler.EventTypes())

	event := customer.NewCustomerUpdatedEvent(c)
	require.NoError(t, handler.Handle(context.Background(), event))

	assert.Equal(t, []uuid.UUID{f.ID}, forests.savedAttrs)
	assert.Equal(t, []uuid.UUID{a.ID}, archives.savedAttrs)
}
