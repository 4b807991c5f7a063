package handler

import (
	"github.com/forestcrm/backend/internal/application/listing"
	postalapp "github.com/forestcrm/backend/internal/application/postal"
	"github.com/forestcrm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PostalHandler handles postal mailing history API endpoints
type PostalHandler struct {
	BaseHandler
	postalService *postalapp.Service
}

// NewPostalHandler creates a new PostalHandler
func NewPostalHandler(postalService *postalapp.Service) *PostalHandler {
	return &PostalHandler{postalService: postalService}
}

// Create godoc
// @ID           createPostalHistory
// @Summary      Create a mailing record
// @Tags         postal-histories
// @Accept       json
// @Produce      json
// @Param        request body postalapp.CreatePostalHistoryRequest true "Mailing record creation request"
// @Success      201 {object} APIResponse[postal.PostalHistory]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /postal-histories [post]
func (h *PostalHandler) Create(c *gin.Context) {
	var req postalapp.CreatePostalHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	// default the author to the caller
	if req.AuthorID == nil {
		if userID, err := getUserID(c); err == nil {
			req.AuthorID = &userID
		}
	}

	p, err := h.postalService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, p)
}

// GetByID godoc
// @ID           getPostalHistoryById
// @Summary      Get a mailing record by ID
// @Tags         postal-histories
// @Produce      json
// @Param        id path string true "Postal history ID" format(uuid)
// @Success      200 {object} APIResponse[postal.PostalHistory]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /postal-histories/{id} [get]
func (h *PostalHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid postal history ID format")
		return
	}

	p, err := h.postalService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, p)
}

// Update godoc
// @ID           updatePostalHistory
// @Summary      Update a mailing record
// @Tags         postal-histories
// @Accept       json
// @Produce      json
// @Param        id path string true "Postal history ID" format(uuid)
// @Param        request body postalapp.UpdatePostalHistoryRequest true "Mailing record update request"
// @Success      200 {object} APIResponse[postal.PostalHistory]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /postal-histories/{id} [put]
func (h *PostalHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid postal history ID format")
		return
	}

	var req postalapp.UpdatePostalHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	p, err := h.postalService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, p)
}

// Delete godoc
// @ID           deletePostalHistory
// @Summary      Delete a mailing record
// @Tags         postal-histories
// @Param        id path string true "Postal history ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /postal-histories/{id} [delete]
func (h *PostalHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid postal history ID format")
		return
	}

	if err := h.postalService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// Search godoc
// @ID           searchPostalHistories
// @Summary      Search mailing records
// @Description  Filtered listing over content, recipients and linked-entity cache columns. Restricted callers only see records they authored or sent.
// @Tags         postal-histories
// @Accept       json
// @Produce      json
// @Param        request body listing.Request true "Search criteria and pagination"
// @Success      200 {object} APIResponse[[]postal.ListRow]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /postal-histories/search [post]
func (h *PostalHandler) Search(c *gin.Context) {
	var req listing.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ac := middleware.GetAccessContext(c)
	page, err := h.postalService.List(c.Request.Context(), ac, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

func (h *PostalHandler) relationAction(c *gin.Context, fn func(uuid.UUID, []uuid.UUID) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid postal history ID format")
		return
	}

	var req RelatedIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	ids, err := req.uuids()
	if err != nil {
		h.BadRequest(c, "Invalid ID format")
		return
	}

	if err := fn(id, ids); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, nil)
}

// AddForests godoc
// @ID           addPostalHistoryForests
// @Summary      Link forest parcels to a mailing record
// @Tags         postal-histories
// @Accept       json
// @Produce      json
// @Param        id path string true "Postal history ID" format(uuid)
// @Param        request body RelatedIDsRequest true "Forest ids"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /postal-histories/{id}/forests [post]
func (h *PostalHandler) AddForests(c *gin.Context) {
	h.relationAction(c, func(id uuid.UUID, ids []uuid.UUID) error {
		return h.postalService.AddRelatedForests(c.Request.Context(), id, ids)
	})
}

// RemoveForests godoc
// @ID           removePostalHistoryForests
// @Summary      Unlink forest parcels from a mailing record
// @Tags         postal-histories
// @Accept       json
// @Produce      json
// @Param        id path string true "Postal history ID" format(uuid)
// @Param        request body RelatedIDsRequest true "Forest ids"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /postal-histories/{id}/forests/delete [post]
func (h *PostalHandler) RemoveForests(c *gin.Context) {
	h.relationAction(c, func(id uuid.UUID, ids []uuid.UUID) error {
		return h.postalService.DeleteRelatedForests(c.Request.Context(), id, ids)
	})
}

// AddRecipients godoc
// @ID           addPostalHistoryRecipients
// @Summary      Link customer recipients to a mailing record
// @Tags         postal-histories
// @Accept       json
// @Produce      json
// @Param        id path string true "Postal history ID" format(uuid)
// @Param        request body RelatedIDsRequest true "Customer ids"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /postal-histories/{id}/recipients [post]
func (h *PostalHandler) AddRecipients(c *gin.Context) {
	h.relationAction(c, func(id uuid.UUID, ids []uuid.UUID) error {
		return h.postalService.AddRecipients(c.Request.Context(), id, ids)
	})
}

// RemoveRecipients godoc
// @ID           removePostalHistoryRecipients
// @Summary      Unlink customer recipients from a mailing record
// @Tags         postal-histories
// @Accept       json
// @Produce      json
// @Param        id path string true "Postal history ID" format(uuid)
// @Param        request body RelatedIDsRequest true "Customer ids"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /postal-histories/{id}/recipients/delete [post]
func (h *PostalHandler) RemoveRecipients(c *gin.Context) {
	h.relationAction(c, func(id uuid.UUID, ids []uuid.UUID) error {
		return h.postalService.DeleteRecipients(c.Request.Context(), id, ids)
	})
}

// AddUsers godoc
// @ID           addPostalHistoryUsers
// @Summary      Link sender users to a mailing record
// @Tags         postal-histories
// @Accept       json
// @Produce      json
// @Param        id path string true "Postal history ID" format(uuid)
// @Param        request body RelatedIDsRequest true "User ids"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /postal-histories/{id}/users [post]
func (h *PostalHandler) AddUsers(c *gin.Context) {
	h.relationAction(c, func(id uuid.UUID, ids []uuid.UUID) error {
		return h.postalService.AddRelatedUsers(c.Request.Context(), id, ids)
	})
}

// RemoveUsers godoc
// @ID           removePostalHistoryUsers
// @Summary      Unlink sender users from a mailing record
// @Tags         postal-histories
// @Accept       json
// @Produce      json
// @Param        id path string true "Postal history ID" format(uuid)
// @Param        request body RelatedIDsRequest true "User ids"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /postal-histories/{id}/users/delete [post]
func (h *PostalHandler) RemoveUsers(c *gin.Context) {
	h.relationAction(c, func(id uuid.UUID, ids []uuid.UUID) error {
		return h.postalService.DeleteRelatedUsers(c.Request.Context(), id, ids)
	})
}

// RegisterRoutes registers postal history routes
func (h *PostalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	histories := rg.Group("/postal-histories")
	{
		histories.POST("", h.Create)
		histories.POST("/search", h.Search)
		histories.GET("/:id", h.GetByID)
		histories.PUT("/:id", h.Update)
		histories.DELETE("/:id", h.Delete)
		histories.POST("/:id/forests", h.AddForests)
		histories.POST("/:id/forests/delete", h.RemoveForests)
		histories.POST("/:id/recipients", h.AddRecipients)
		histories.POST("/:id/recipients/delete", h.RemoveRecipients)
		histories.POST("/:id/users", h.AddUsers)
		histories.POST("/:id/users/delete", h.RemoveUsers)
	}
}
