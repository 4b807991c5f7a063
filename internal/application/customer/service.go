// Package customer implements the application operations on customers:
// CRUD with the basic self contact, related-person contacts, listing
// and CSV export.
package customer

import (
	"context"
	"errors"
	"io"

	"github.com/forestcrm/backend/internal/application/listing"
	"github.com/forestcrm/backend/internal/domain/customer"
	"github.com/forestcrm/backend/internal/domain/relation"
	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/forestcrm/backend/internal/domain/tag"
	csvimport "github.com/forestcrm/backend/internal/infrastructure/import"
	"github.com/forestcrm/backend/internal/search"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles customer operations
type Service struct {
	customers customer.Repository
	contacts  relation.CustomerContactRepository
	bus       shared.EventPublisher
	logger    *zap.Logger
}

// NewService creates a customer service
func NewService(
	customers customer.Repository,
	contacts relation.CustomerContactRepository,
	bus shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		customers: customers,
		contacts:  contacts,
		bus:       bus,
		logger:    logger,
	}
}

// Create registers a customer together with their basic self contact
func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	existing, err := s.customers.FindByBusinessID(ctx, req.BusinessID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Customer with this business id already exists")
	}

	c := customer.NewCustomer(req.InternalID, req.BusinessID)
	if req.Banking != nil {
		c.SetBanking(req.Banking)
	}
	if req.Tags != nil {
		c.SetTags(req.Tags)
	}
	if err := s.customers.Save(ctx, c); err != nil {
		return nil, err
	}

	contact := customer.NewContact(req.Contact.NameKanji, req.Contact.NameKana)
	contact.SetReachability(
		req.Contact.PostalCode,
		req.Contact.Telephone,
		req.Contact.Mobilephone,
		req.Contact.Email,
		req.Contact.Address,
	)
	if err := s.customers.SaveContact(ctx, contact); err != nil {
		return nil, err
	}
	link := relation.NewCustomerContact(c.ID, contact.ID, true)
	if err := s.contacts.Save(ctx, link); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, c)
	return &CustomerResponse{Customer: c, Contact: contact}, nil
}

// Get loads a customer with its self contact
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	contact, err := s.customers.SelfContact(ctx, id)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return &CustomerResponse{Customer: c, Contact: contact}, nil
}

// Update replaces a customer's editable fields and self contact details.
// The resulting update event fans out into every cache that reprs the
// customer's name.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	contact, err := s.customers.SelfContact(ctx, id)
	if err != nil {
		return nil, err
	}
	contact.NameKanji = req.Contact.NameKanji
	contact.NameKana = req.Contact.NameKana
	contact.SetReachability(
		req.Contact.PostalCode,
		req.Contact.Telephone,
		req.Contact.Mobilephone,
		req.Contact.Email,
		req.Contact.Address,
	)
	if err := s.customers.SaveContact(ctx, contact); err != nil {
		return nil, err
	}

	if req.Banking != nil {
		c.SetBanking(req.Banking)
	}
	if req.Status != "" {
		if err := c.SetStatus(customer.RegisterStatus(req.Status)); err != nil {
			return nil, err
		}
	}
	if req.Tags != nil {
		c.SetTags(req.Tags)
	}
	c.Update()
	if err := s.customers.Save(ctx, c); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, c)
	return &CustomerResponse{Customer: c, Contact: contact}, nil
}

// Delete soft-deletes a customer
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.customers.Delete(ctx, id)
}

// AddContact links a related person to the customer
func (s *Service) AddContact(ctx context.Context, customerID uuid.UUID, details ContactDetails) (*customer.Contact, error) {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, err
	}
	contact := customer.NewContact(details.NameKanji, details.NameKana)
	contact.SetReachability(
		details.PostalCode,
		details.Telephone,
		details.Mobilephone,
		details.Email,
		details.Address,
	)
	if err := s.customers.SaveContact(ctx, contact); err != nil {
		return nil, err
	}
	link := relation.NewCustomerContact(customerID, contact.ID, false)
	if err := s.contacts.Save(ctx, link); err != nil {
		return nil, err
	}
	return contact, nil
}

// RemoveContact tombstones the customer-to-contact link
func (s *Service) RemoveContact(ctx context.Context, customerID, contactID uuid.UUID) error {
	return s.contacts.Tombstone(ctx, customerID, contactID)
}

// List returns the filtered, ordered, paginated customer listing
func (s *Service) List(ctx context.Context, req listing.Request) (shared.Paginated[customer.ListRow], error) {
	query, err := req.ListQuery()
	if err != nil {
		return shared.Paginated[customer.ListRow]{}, err
	}
	pred := search.Compile(search.CustomerMapping, req.Criteria)
	rows, total, err := s.customers.List(ctx, query, pred)
	if err != nil {
		return shared.Paginated[customer.ListRow]{}, err
	}
	return shared.NewPaginated(rows, total, query.PageNum, query.PerPage), nil
}

// csvHeader is the fixed export column order the office tooling expects
var csvHeader = []string{
	"顧客ID", "事業者ID", "氏名", "氏名カナ", "郵便番号", "都道府県",
	"市町村", "住所", "電話番号", "携帯番号", "メールアドレス",
	"代表者", "タグ", "所有林地", "連絡先",
}

// ExportCSV streams the filtered listing as BOM-prefixed UTF-8 CSV,
// including the aggregated forest and contact arrays as JSON cells
func (s *Service) ExportCSV(ctx context.Context, criteria map[string]string, w io.Writer) error {
	query := shared.ListQuery{ForCSV: true, OrderBy: []string{"internal_id"}}
	pred := search.Compile(search.CustomerMapping, criteria)
	rows, _, err := s.customers.List(ctx, query, pred)
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
			row.BusinessID,
			row.FullnameKanji,
			row.FullnameKana,
			row.PostalCode,
			row.Prefecture,
			row.Municipality,
			row.Address,
			row.Telephone,
			row.Mobilephone,
			row.Email,
			row.Representative,
			csvTags(row.TagsRepr),
			row.ForestsJSON,
			row.ContactsJSON,
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

// publishEvents flushes the aggregate's pending events onto the bus
func (s *Service) publishEvents(ctx context.Context, c *customer.Customer) {
	events := c.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.bus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish customer events",
			zap.String("customer_id", c.ID.String()),
			zap.Error(err))
	}
	c.ClearDomainEvents()
}
