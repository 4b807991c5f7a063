package handler

import (
	"net/http"
	"time"

	forestapp "github.com/forestcrm/backend/internal/application/forest"
	"github.com/forestcrm/backend/internal/application/listing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ForestHandler handles forest parcel API endpoints
type ForestHandler struct {
	BaseHandler
	forestService *forestapp.Service
}

// NewForestHandler creates a new ForestHandler
func NewForestHandler(forestService *forestapp.Service) *ForestHandler {
	return &ForestHandler{forestService: forestService}
}

// OwnerLinkRequest adds or changes one owner on a parcel
// @Description Request body for linking a customer as parcel owner
type OwnerLinkRequest struct {
	CustomerID string `json:"customer_id" binding:"required,uuid"`
	IsDefault  bool   `json:"is_default"`
}

// TagsRequest replaces an entity's tag map
// @Description Request body carrying a full tag map
type TagsRequest struct {
	Tags map[string]string `json:"tags" binding:"required"`
}

// Create godoc
// @ID           createForest
// @Summary      Create a forest parcel
// @Tags         forests
// @Accept       json
// @Produce      json
// @Param        request body forestapp.CreateForestRequest true "Forest creation request"
// @Success      201 {object} APIResponse[forest.Forest]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /forests [post]
func (h *ForestHandler) Create(c *gin.Context) {
	var req forestapp.CreateForestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	f, err := h.forestService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, f)
}

// GetByID godoc
// @ID           getForestById
// @Summary      Get a forest parcel by ID
// @Tags         forests
// @Produce      json
// @Param        id path string true "Forest ID" format(uuid)
// @Success      200 {object} APIResponse[forest.Forest]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /forests/{id} [get]
func (h *ForestHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid forest ID format")
		return
	}

	f, err := h.forestService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, f)
}

// Update godoc
// @ID           updateForest
// @Summary      Update a forest parcel
// @Tags         forests
// @Accept       json
// @Produce      json
// @Param        id path string true "Forest ID" format(uuid)
// @Param        request body forestapp.UpdateForestRequest true "Forest update request"
// @Success      200 {object} APIResponse[forest.Forest]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /forests/{id} [put]
func (h *ForestHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid forest ID format")
		return
	}

	var req forestapp.UpdateForestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	f, err := h.forestService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, f)
}

// Delete godoc
// @ID           deleteForest
// @Summary      Delete a forest parcel
// @Tags         forests
// @Param        id path string true "Forest ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /forests/{id} [delete]
func (h *ForestHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid forest ID format")
		return
	}

	if err := h.forestService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// Search godoc
// @ID           searchForests
// @Summary      Search forest parcels
// @Description  Filtered, ordered, paginated forest listing with computed owner columns
// @Tags         forests
// @Accept       json
// @Produce      json
// @Param        request body listing.Request true "Search criteria and pagination"
// @Success      200 {object} APIResponse[[]forest.ListRow]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /forests/search [post]
func (h *ForestHandler) Search(c *gin.Context) {
	var req listing.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.forestService.List(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ExportCSV godoc
// @ID           exportForestsCsv
// @Summary      Export forest parcels as CSV
// @Description  Streams a BOM-prefixed UTF-8 CSV of every parcel matching the criteria
// @Tags         forests
// @Accept       json
// @Produce      text/csv
// @Param        request body listing.Request true "Search criteria (pagination ignored)"
// @Success      200 {string} string "CSV file"
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /forests/export [post]
func (h *ForestHandler) ExportCSV(c *gin.Context) {
	var req listing.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filename := "forests_" + time.Now().Format("20060102_150405") + ".csv"
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	if err := h.forestService.ExportCSV(c.Request.Context(), req.Criteria, c.Writer); err != nil {
		// headers already sent, log through gin's error list
		_ = c.Error(err)
	}
}

// AddOwner godoc
// @ID           addForestOwner
// @Summary      Link a customer as owner of a parcel
// @Tags         forests
// @Accept       json
// @Produce      json
// @Param        id path string true "Forest ID" format(uuid)
// @Param        request body OwnerLinkRequest true "Owner link request"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /forests/{id}/owners [post]
func (h *ForestHandler) AddOwner(c *gin.Context) {
	forestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid forest ID format")
		return
	}

	var req OwnerLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	if err := h.forestService.AddOwner(c.Request.Context(), forestID, customerID, req.IsDefault); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, nil)
}

// RemoveOwner godoc
// @ID           removeForestOwner
// @Summary      Unlink a customer from a parcel
// @Tags         forests
// @Param        id path string true "Forest ID" format(uuid)
// @Param        customerId path string true "Customer ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /forests/{id}/owners/{customerId} [delete]
func (h *ForestHandler) RemoveOwner(c *gin.Context) {
	forestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid forest ID format")
		return
	}
	customerID, err := uuid.Parse(c.Param("customerId"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	if err := h.forestService.RemoveOwner(c.Request.Context(), forestID, customerID); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// SetDefaultOwner godoc
// @ID           setDefaultForestOwner
// @Summary      Mark an owner as the parcel's representative
// @Tags         forests
// @Accept       json
// @Produce      json
// @Param        id path string true "Forest ID" format(uuid)
// @Param        customerId path string true "Customer ID" format(uuid)
// @Param        request body OwnerLinkRequest true "Default flag"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /forests/{id}/owners/{customerId}/default [put]
func (h *ForestHandler) SetDefaultOwner(c *gin.Context) {
	forestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid forest ID format")
		return
	}
	customerID, err := uuid.Parse(c.Param("customerId"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var req struct {
		IsDefault bool `json:"is_default"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.forestService.SetDefaultOwner(c.Request.Context(), forestID, customerID, req.IsDefault); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, nil)
}

// UpdateTags godoc
// @ID           updateForestTags
// @Summary      Replace a parcel's tags
// @Tags         forests
// @Accept       json
// @Produce      json
// @Param        id path string true "Forest ID" format(uuid)
// @Param        request body TagsRequest true "Tag map"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /forests/{id}/tags [put]
func (h *ForestHandler) UpdateTags(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid forest ID format")
		return
	}

	var req TagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.forestService.UpdateTags(c.Request.Context(), id, req.Tags); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, nil)
}

// ReloadOwnerCache godoc
// @ID           reloadForestOwnerCache
// @Summary      Rebuild a parcel's owner cache in the background
// @Tags         forests
// @Produce      json
// @Param        id path string true "Forest ID" format(uuid)
// @Success      202 {object} APIResponse[TaskData]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /forests/{id}/cache/reload [post]
func (h *ForestHandler) ReloadOwnerCache(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid forest ID format")
		return
	}

	name, err := h.forestService.ReloadOwnerCache(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, APIResponse[TaskData]{Success: true, Data: TaskData{TaskName: name}})
}

// RegisterRoutes registers forest routes
func (h *ForestHandler) RegisterRoutes(rg *gin.RouterGroup) {
	forests := rg.Group("/forests")
	{
		forests.POST("", h.Create)
		forests.POST("/search", h.Search)
		forests.POST("/export", h.ExportCSV)
		forests.GET("/:id", h.GetByID)
		forests.PUT("/:id", h.Update)
		forests.DELETE("/:id", h.Delete)
		forests.PUT("/:id/tags", h.UpdateTags)
		forests.POST("/:id/owners", h.AddOwner)
		forests.DELETE("/:id/owners/:customerId", h.RemoveOwner)
		forests.PUT("/:id/owners/:customerId/default", h.SetDefaultOwner)
		forests.POST("/:id/cache/reload", h.ReloadOwnerCache)
	}
}
