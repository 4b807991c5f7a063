package customer

import (
	"github.com/forestcrm/backend/internal/domain/customer"
)

// ContactDetails carries the reachable identity fields of one person
type ContactDetails struct {
	NameKanji   customer.Name    `json:"name_kanji"`
	NameKana    customer.Name    `json:"name_kana"`
	PostalCode  string           `json:"postal_code"`
	Telephone   string           `json:"telephone"`
	Mobilephone string           `json:"mobilephone"`
	Email       string           `json:"email"`
	Address     customer.Address `json:"address"`
}

// CreateCustomerRequest registers a customer with their self contact
type CreateCustomerRequest struct {
	InternalID string                 `json:"internal_id"`
	BusinessID string                 `json:"business_id" binding:"required"`
	Contact    ContactDetails         `json:"contact"`
	Banking    map[string]interface{} `json:"banking"`
	Tags       map[string]string      `json:"tags"`
}

// UpdateCustomerRequest replaces a customer's editable fields
type UpdateCustomerRequest struct {
	Contact ContactDetails         `json:"contact"`
	Banking map[string]interface{} `json:"banking"`
	Status  string                 `json:"status"`
	Tags    map[string]string      `json:"tags"`
}

// CustomerResponse pairs the customer with its self contact
type CustomerResponse struct {
	Customer *customer.Customer `json:"customer"`
	Contact  *customer.Contact  `json:"contact"`
}
