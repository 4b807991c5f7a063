// Package importer implements bulk CSV upload of customers. Rows are
// validated one at a time and the import stops at the first bad row,
// reporting its 1-based line number and per-field messages.
package importer

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/forestcrm/backend/internal/application/cachesync"
	"github.com/forestcrm/backend/internal/domain/customer"
	"github.com/forestcrm/backend/internal/domain/forest"
	"github.com/forestcrm/backend/internal/domain/relation"
	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/forestcrm/backend/internal/domain/tag"
	csvimport "github.com/forestcrm/backend/internal/infrastructure/import"
	"github.com/forestcrm/backend/internal/infrastructure/taskqueue"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CSV header contract of the customer upload format
const (
	headerBusinessID     = "事業者ID"
	headerInternalID     = "顧客ID"
	headerLastNameKanji  = "姓"
	headerFirstNameKanji = "名"
	headerLastNameKana   = "セイ"
	headerFirstNameKana  = "メイ"
	headerPostalCode     = "郵便番号"
	headerPrefecture     = "都道府県"
	headerMunicipality   = "市町村"
	headerAddress        = "住所"
	headerTelephone      = "電話番号"
	headerMobilephone    = "携帯番号"
	headerEmail          = "メールアドレス"
	headerTags           = "タグ"
	headerForests        = "林地ID"
)

var requiredHeaders = []string{headerBusinessID, headerLastNameKanji}

// customerRow is the validated shape of one upload row
type customerRow struct {
	BusinessID     string `validate:"required"`
	InternalID     string
	LastNameKanji  string `validate:"required"`
	FirstNameKanji string
	LastNameKana   string
	FirstNameKana  string
	PostalCode     string `validate:"omitempty,max=20"`
	Prefecture     string
	Municipality   string
	Address        string
	Telephone      string `validate:"omitempty,max=50"`
	Mobilephone    string `validate:"omitempty,max=50"`
	Email          string `validate:"omitempty,email"`
}

// fieldHeaders maps the DTO field names back to the CSV headers so
// validation failures report the column the user sees
var fieldHeaders = map[string]string{
	"BusinessID":     headerBusinessID,
	"InternalID":     headerInternalID,
	"LastNameKanji":  headerLastNameKanji,
	"FirstNameKanji": headerFirstNameKanji,
	"LastNameKana":   headerLastNameKana,
	"FirstNameKana":  headerFirstNameKana,
	"PostalCode":     headerPostalCode,
	"Prefecture":     headerPrefecture,
	"Municipality":   headerMunicipality,
	"Address":        headerAddress,
	"Telephone":      headerTelephone,
	"Mobilephone":    headerMobilephone,
	"Email":          headerEmail,
}

// ImportResult summarizes a completed customer import
type ImportResult struct {
	Created  int    `json:"created"`
	Updated  int    `json:"updated"`
	TaskName string `json:"task_name,omitempty"`
}

// CustomerImporter runs the bulk customer CSV upload
type CustomerImporter struct {
	customers    customer.Repository
	forests      forest.Repository
	contacts     relation.CustomerContactRepository
	forestOwners relation.ForestCustomerRepository
	cache        *cachesync.Service
	dispatcher   *taskqueue.Dispatcher
	validate     *validator.Validate
	logger       *zap.Logger
}

// NewCustomerImporter creates a customer importer
func NewCustomerImporter(
	customers customer.Repository,
	forests forest.Repository,
	contacts relation.CustomerContactRepository,
	forestOwners relation.ForestCustomerRepository,
	cache *cachesync.Service,
	dispatcher *taskqueue.Dispatcher,
	logger *zap.Logger,
) *CustomerImporter {
	return &CustomerImporter{
		customers:    customers,
		forests:      forests,
		contacts:     contacts,
		forestOwners: forestOwners,
		cache:        cache,
		dispatcher:   dispatcher,
		validate:     validator.New(),
		logger:       logger,
	}
}

// Import reads the upload, applies every row in order and stops at the
// first invalid one. On success the owner caches of every touched
// forest rebuild on the background dispatcher.
func (s *CustomerImporter) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	parser, err := csvimport.NewCSVParser(r)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	if missing := parser.MissingHeaders(requiredHeaders); len(missing) > 0 {
		return nil, shared.NewValidationError("Missing required columns: " + strings.Join(missing, ", "))
	}

	result := &ImportResult{}
	affected := map[uuid.UUID]bool{}
	for {
		row, err := parser.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if row.IsEmpty() {
			continue
		}
		if err := s.applyRow(ctx, row, result, affected); err != nil {
			return nil, err
		}
	}

	if len(affected) > 0 {
		forestIDs := make([]uuid.UUID, 0, len(affected))
		for id := range affected {
			forestIDs = append(forestIDs, id)
		}
		name := taskqueue.RandomTaskName("customer_import_cache")
		err := s.dispatcher.Enqueue(ctx, taskqueue.Task{
			Name: name,
			Run: func(taskCtx context.Context) error {
				return s.cache.RefreshForestOwnerCache(taskCtx, forestIDs)
			},
		})
		if err != nil {
			// The import itself succeeded; a full reload can recover
			// the caches later.
			s.logger.Warn("failed to enqueue owner cache refresh after import",
				zap.Int("forests", len(forestIDs)),
				zap.Error(err))
		} else {
			result.TaskName = name
		}
	}
	return result, nil
}

// applyRow validates and upserts one row
func (s *CustomerImporter) applyRow(ctx context.Context, row *csvimport.Row, result *ImportResult, affected map[uuid.UUID]bool) error {
	rowErr := csvimport.NewRowError(row.LineNumber)

	dto := customerRow{
		BusinessID:     row.Get(headerBusinessID),
		InternalID:     row.Get(headerInternalID),
		LastNameKanji:  row.Get(headerLastNameKanji),
		FirstNameKanji: row.Get(headerFirstNameKanji),
		LastNameKana:   row.Get(headerLastNameKana),
		FirstNameKana:  row.Get(headerFirstNameKana),
		PostalCode:     row.Get(headerPostalCode),
		Prefecture:     row.Get(headerPrefecture),
		Municipality:   row.Get(headerMunicipality),
		Address:        row.Get(headerAddress),
		Telephone:      row.Get(headerTelephone),
		Mobilephone:    row.Get(headerMobilephone),
		Email:          row.Get(headerEmail),
	}
	if err := s.validate.Struct(dto); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				rowErr.Add(fieldHeaders[fe.Field()], validationMessage(fe))
			}
		} else {
			rowErr.Add(headerBusinessID, err.Error())
		}
	}

	tags, err := tag.ParseCSV(row.Get(headerTags))
	if err != nil {
		rowErr.Add(headerTags, err.Error())
	}

	forestIDs, err := s.resolveForests(ctx, row.Get(headerForests), rowErr)
	if err != nil {
		return err
	}

	if rowErr.HasErrors() {
		return rowErr
	}

	c, created, err := s.upsertCustomer(ctx, dto, tags)
	if err != nil {
		return err
	}
	if created {
		result.Created++
	} else {
		result.Updated++
		// an update may have renamed the customer, so every parcel
		// already owned by them carries a stale owner rollup
		owned, err := s.forestOwners.ForestIDsByCustomer(ctx, c.ID)
		if err != nil {
			return err
		}
		for _, forestID := range owned {
			affected[forestID] = true
		}
	}

	for _, forestID := range forestIDs {
		linked, err := s.ensureOwnerLink(ctx, forestID, c.ID)
		if err != nil {
			return err
		}
		if linked {
			affected[forestID] = true
		}
	}
	return nil
}

// resolveForests maps the semicolon-separated forest internal ids of
// one cell onto parcel ids, reporting unknown ids against the cell
func (s *CustomerImporter) resolveForests(ctx context.Context, cell string, rowErr *csvimport.RowError) ([]uuid.UUID, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	var ids []uuid.UUID
	for _, internalID := range strings.Split(cell, ";") {
		internalID = strings.TrimSpace(internalID)
		if internalID == "" {
			continue
		}
		f, err := s.forests.FindByInternalID(ctx, internalID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				rowErr.Add(headerForests, "Unknown forest: "+internalID)
				continue
			}
			return nil, err
		}
		ids = append(ids, f.ID)
	}
	return ids, nil
}

// upsertCustomer creates or updates the customer behind a business id.
// Existing rows lock with NOWAIT, so a concurrent import fails fast
// with shared.ErrResourcesNotReady instead of blocking.
func (s *CustomerImporter) upsertCustomer(ctx context.Context, dto customerRow, tags map[string]string) (*customer.Customer, bool, error) {
	existing, err := s.customers.FindByBusinessIDForUpdateNoWait(ctx, dto.BusinessID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	kanji := customer.Name{LastName: dto.LastNameKanji, FirstName: dto.FirstNameKanji}
	kana := customer.Name{LastName: dto.LastNameKana, FirstName: dto.FirstNameKana}
	address := customer.Address{
		Prefecture:   dto.Prefecture,
		Municipality: dto.Municipality,
		Sector:       dto.Address,
	}

	if existing != nil {
		contact, err := s.customers.SelfContact(ctx, existing.ID)
		missingContact := false
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return nil, false, err
			}
			contact = customer.NewContact(kanji, kana)
			missingContact = true
		}
		contact.NameKanji = kanji
		contact.NameKana = kana
		contact.SetReachability(dto.PostalCode, dto.Telephone, dto.Mobilephone, dto.Email, address)
		if err := s.customers.SaveContact(ctx, contact); err != nil {
			return nil, false, err
		}
		if missingContact {
			link := relation.NewCustomerContact(existing.ID, contact.ID, true)
			if err := s.contacts.Save(ctx, link); err != nil {
				return nil, false, err
			}
		}
		if dto.InternalID != "" {
			existing.InternalID = dto.InternalID
		}
		if len(tags) > 0 {
			existing.SetTags(tags)
		}
		existing.Touch()
		if err := s.customers.Save(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	c := customer.NewCustomer(dto.InternalID, dto.BusinessID)
	if len(tags) > 0 {
		c.SetTags(tags)
	}
	if err := s.customers.Save(ctx, c); err != nil {
		return nil, false, err
	}
	contact := customer.NewContact(kanji, kana)
	contact.SetReachability(dto.PostalCode, dto.Telephone, dto.Mobilephone, dto.Email, address)
	if err := s.customers.SaveContact(ctx, contact); err != nil {
		return nil, false, err
	}
	link := relation.NewCustomerContact(c.ID, contact.ID, true)
	if err := s.contacts.Save(ctx, link); err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// ensureOwnerLink creates the ownership link when absent, reporting
// whether the forest's owner cache needs a rebuild
func (s *CustomerImporter) ensureOwnerLink(ctx context.Context, forestID, customerID uuid.UUID) (bool, error) {
	existing, err := s.forestOwners.FindActive(ctx, forestID, customerID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	link := relation.NewForestCustomer(forestID, customerID)
	if err := s.forestOwners.Save(ctx, link); err != nil {
		return false, err
	}
	return true, nil
}

// validationMessage renders one validator failure as a user message
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email address"
	case "max":
		return "Value too long (max " + fe.Param() + ")"
	default:
		return "Invalid value"
	}
}
