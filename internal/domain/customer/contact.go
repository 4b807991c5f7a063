package customer

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/forestcrm/backend/internal/domain/shared"
)

// Name is a Japanese personal name, persisted as a jsonb object
type Name struct {
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
}

// Value implements driver.Valuer
func (n Name) Value() (driver.Value, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (n *Name) Scan(value interface{}) error {
	return scanJSON(value, n)
}

// Full returns "LastName FirstName" with surrounding whitespace trimmed,
// the form used in owner cache reprs and search columns.
func (n Name) Full() string {
	return strings.TrimSpace(n.LastName + " " + n.FirstName)
}

// Address is a Japanese postal address, persisted as a jsonb object
type Address struct {
	Prefecture   string `json:"prefecture"`
	Municipality string `json:"municipality"`
	Sector       string `json:"sector"`
}

// Value implements driver.Valuer
func (a Address) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(value interface{}) error {
	return scanJSON(value, a)
}

func scanJSON(value, dest interface{}) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

// Contact carries the reachable identity of a person: either a
// customer's own details (the basic contact) or a related person such
// as a family member. It is linked to customers through CustomerContact.
type Contact struct {
	shared.BaseEntity
	NameKanji   Name    `gorm:"type:jsonb"`
	NameKana    Name    `gorm:"type:jsonb"`
	PostalCode  string  `gorm:"type:varchar(20)"`
	Telephone   string  `gorm:"type:varchar(50)"`
	Mobilephone string  `gorm:"type:varchar(50)"`
	Email       string  `gorm:"type:varchar(200);index"`
	Address     Address `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (Contact) TableName() string {
	return "contacts"
}

// NewContact creates a contact with name and reachability details
func NewContact(kanji, kana Name) *Contact {
	return &Contact{
		BaseEntity: shared.NewBaseEntity(),
		NameKanji:  kanji,
		NameKana:   kana,
	}
}

// SetReachability updates the contact's postal and electronic details
func (c *Contact) SetReachability(postalCode, telephone, mobilephone, email string, address Address) {
	c.PostalCode = postalCode
	c.Telephone = telephone
	c.Mobilephone = mobilephone
	c.Email = email
	c.Address = address
	c.UpdatedAt = time.Now()
}
