package handler

import (
	"net/http"
	"time"

	customerapp "github.com/forestcrm/backend/internal/application/customer"
	"github.com/forestcrm/backend/internal/application/listing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CustomerHandler handles customer API endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *customerapp.Service
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *customerapp.Service) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// Create godoc
// @ID           createCustomer
// @Summary      Create a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body customerapp.CreateCustomerRequest true "Customer creation request"
// @Success      201 {object} APIResponse[customerapp.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req customerapp.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.customerService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID godoc
// @ID           getCustomerById
// @Summary      Get a customer by ID
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[customerapp.CustomerResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	resp, err := h.customerService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update godoc
// @ID           updateCustomer
// @Summary      Update a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body customerapp.UpdateCustomerRequest true "Customer update request"
// @Success      200 {object} APIResponse[customerapp.CustomerResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var req customerapp.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.customerService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @ID           deleteCustomer
// @Summary      Delete a customer
// @Tags         customers
// @Param        id path string true "Customer ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	if err := h.customerService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// Search godoc
// @ID           searchCustomers
// @Summary      Search customers
// @Description  Filtered, ordered, paginated customer listing over contact and tag columns
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body listing.Request true "Search criteria and pagination"
// @Success      200 {object} APIResponse[[]customer.ListRow]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/search [post]
func (h *CustomerHandler) Search(c *gin.Context) {
	var req listing.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.customerService.List(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ExportCSV godoc
// @ID           exportCustomersCsv
// @Summary      Export customers as CSV
// @Description  Streams a BOM-prefixed UTF-8 CSV of every customer matching the criteria
// @Tags         customers
// @Accept       json
// @Produce      text/csv
// @Param        request body listing.Request true "Search criteria (pagination ignored)"
// @Success      200 {string} string "CSV file"
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/export [post]
func (h *CustomerHandler) ExportCSV(c *gin.Context) {
	var req listing.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filename := "customers_" + time.Now().Format("20060102_150405") + ".csv"
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	if err := h.customerService.ExportCSV(c.Request.Context(), req.Criteria, c.Writer); err != nil {
		_ = c.Error(err)
	}
}

// AddContact godoc
// @ID           addCustomerContact
// @Summary      Add a contact person to a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body customerapp.ContactDetails true "Contact details"
// @Success      201 {object} APIResponse[customer.Contact]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/contacts [post]
func (h *CustomerHandler) AddContact(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var req customerapp.ContactDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	contact, err := h.customerService.AddContact(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, contact)
}

// RemoveContact godoc
// @ID           removeCustomerContact
// @Summary      Remove a contact person from a customer
// @Tags         customers
// @Param        id path string true "Customer ID" format(uuid)
// @Param        contactId path string true "Contact ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/contacts/{contactId} [delete]
func (h *CustomerHandler) RemoveContact(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}
	contactID, err := uuid.Parse(c.Param("contactId"))
	if err != nil {
		h.BadRequest(c, "Invalid contact ID format")
		return
	}

	if err := h.customerService.RemoveContact(c.Request.Context(), id, contactID); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes registers customer routes
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/customers")
	{
		customers.POST("", h.Create)
		customers.POST("/search", h.Search)
		customers.POST("/export", h.ExportCSV)
		customers.GET("/:id", h.GetByID)
		customers.PUT("/:id", h.Update)
		customers.DELETE("/:id", h.Delete)
		customers.POST("/:id/contacts", h.AddContact)
		customers.DELETE("/:id/contacts/:contactId", h.RemoveContact)
	}
}
