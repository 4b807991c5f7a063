package handler

import (
	"net/http"

	archiveapp "github.com/forestcrm/backend/internal/application/archive"
	"github.com/forestcrm/backend/internal/application/listing"
	"github.com/forestcrm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ArchiveHandler handles consultation archive API endpoints
type ArchiveHandler struct {
	BaseHandler
	archiveService *archiveapp.Service
}

// NewArchiveHandler creates a new ArchiveHandler
func NewArchiveHandler(archiveService *archiveapp.Service) *ArchiveHandler {
	return &ArchiveHandler{archiveService: archiveService}
}

// RelatedIDsRequest carries the target ids of a relation change
// @Description Request body listing related entity ids
type RelatedIDsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

func (r RelatedIDsRequest) uuids() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(r.IDs))
	for _, s := range r.IDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Create godoc
// @ID           createArchive
// @Summary      Create a consultation record
// @Tags         archives
// @Accept       json
// @Produce      json
// @Param        request body archiveapp.CreateArchiveRequest true "Archive creation request"
// @Success      201 {object} APIResponse[archive.Archive]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /archives [post]
func (h *ArchiveHandler) Create(c *gin.Context) {
	var req archiveapp.CreateArchiveRequest
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

	a, err := h.archiveService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, a)
}

// GetByID godoc
// @ID           getArchiveById
// @Summary      Get a consultation record by ID
// @Tags         archives
// @Produce      json
// @Param        id path string true "Archive ID" format(uuid)
// @Success      200 {object} APIResponse[archive.Archive]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /archives/{id} [get]
func (h *ArchiveHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid archive ID format")
		return
	}

	a, err := h.archiveService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, a)
}

// Update godoc
// @ID           updateArchive
// @Summary      Update a consultation record
// @Tags         archives
// @Accept       json
// @Produce      json
// @Param        id path string true "Archive ID" format(uuid)
// @Param        request body archiveapp.UpdateArchiveRequest true "Archive update request"
// @Success      200 {object} APIResponse[archive.Archive]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /archives/{id} [put]
func (h *ArchiveHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid archive ID format")
		return
	}

	var req archiveapp.UpdateArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	a, err := h.archiveService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, a)
}

// Delete godoc
// @ID           deleteArchive
// @Summary      Delete a consultation record
// @Tags         archives
// @Param        id path string true "Archive ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /archives/{id} [delete]
func (h *ArchiveHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid archive ID format")
		return
	}

	if err := h.archiveService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// Search godoc
// @ID           searchArchives
// @Summary      Search consultation records
// @Description  Filtered listing over content, participants and linked-entity cache columns. Restricted callers only see records they authored or participate in.
// @Tags         archives
// @Accept       json
// @Produce      json
// @Param        request body listing.Request true "Search criteria and pagination"
// @Success      200 {object} APIResponse[[]archive.ListRow]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /archives/search [post]
func (h *ArchiveHandler) Search(c *gin.Context) {
	var req listing.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ac := middleware.GetAccessContext(c)
	page, err := h.archiveService.List(c.Request.Context(), ac, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// relationAction resolves the ids of a relation request and applies fn
func (h *ArchiveHandler) relationAction(c *gin.Context, fn func(uuid.UUID, []uuid.UUID) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid archive ID format")
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
// @ID           addArchiveForests
// @Summary      Link forest parcels to a record
// @Tags         archives
// @Accept       json
// @Produce      json
// @Param        id path string true "Archive ID" format(uuid)
// @Param        request body RelatedIDsRequest true "Forest ids"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /archives/{id}/forests [post]
func (h *ArchiveHandler) AddForests(c *gin.Context) {
	h.relationAction(c, func(id uuid.UUID, ids []uuid.UUID) error {
		return h.archiveService.AddRelatedForests(c.Request.Context(), id, ids)
	})
}

// RemoveForests godoc
// @ID           removeArchiveForests
// @Summary      Unlink forest parcels from a record
// @Tags         archives
// @Accept       json
// @Produce      json
// @Param        id path string true "Archive ID" format(uuid)
// @Param        request body RelatedIDsRequest true "Forest ids"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /archives/{id}/forests/delete [post]
func (h *ArchiveHandler) RemoveForests(c *gin.Context) {
	h.relationAction(c, func(id uuid.UUID, ids []uuid.UUID) error {
		return h.archiveService.DeleteRelatedForests(c.Request.Context(), id, ids)
	})
}

// AddParticipants godoc
// @ID           addArchiveParticipants
// @Summary      Link customer participants to a record
// @Tags         archives
// @Accept       json
// @Produce      json
// @Param        id path string true "Archive ID" format(uuid)
// @Param        request body RelatedIDsRequest true "Customer ids"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /archives/{id}/participants [post]
func (h *ArchiveHandler) AddParticipants(c *gin.Context) {
	h.relationAction(c, func(id uuid.UUID, ids []uuid.UUID) error {
		return h.archiveService.AddParticipants(c.Request.Context(), id, ids)
	})
}

// RemoveParticipants godoc
// @ID           removeArchiveParticipants
// @Summary      Unlink customer participants from a record
// @Tags         archives
// @Accept       json
// @Produce      json
// @Param        id path string true "Archive ID" format(uuid)
// @Param        request body RelatedIDsRequest true "Customer ids"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /archives/{id}/participants/delete [post]
func (h *ArchiveHandler) RemoveParticipants(c *gin.Context) {
	h.relationAction(c, func(id uuid.UUID, ids []uuid.UUID) error {
		return h.archiveService.DeleteParticipants(c.Request.Context(), id, ids)
	})
}

// AddUsers godoc
// @ID           addArchiveUsers
// @Summary      Link staff users to a record
// @Tags         archives
// @Accept       json
// @Produce      json
// @Param        id path string true "Archive ID" format(uuid)
// @Param        request body RelatedIDsRequest true "User ids"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /archives/{id}/users [post]
func (h *ArchiveHandler) AddUsers(c *gin.Context) {
	h.relationAction(c, func(id uuid.UUID, ids []uuid.UUID) error {
		return h.archiveService.AddRelatedUsers(c.Request.Context(), id, ids)
	})
}

// RemoveUsers godoc
// @ID           removeArchiveUsers
// @Summary      Unlink staff users from a record
// @Tags         archives
// @Accept       json
// @Produce      json
// @Param        id path string true "Archive ID" format(uuid)
// @Param        request body RelatedIDsRequest true "User ids"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /archives/{id}/users/delete [post]
func (h *ArchiveHandler) RemoveUsers(c *gin.Context) {
	h.relationAction(c, func(id uuid.UUID, ids []uuid.UUID) error {
		return h.archiveService.DeleteRelatedUsers(c.Request.Context(), id, ids)
	})
}

// ReloadCache godoc
// @ID           reloadArchiveCache
// @Summary      Rebuild a record's rollup caches in the background
// @Tags         archives
// @Produce      json
// @Param        id path string true "Archive ID" format(uuid)
// @Success      202 {object} APIResponse[TaskData]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /archives/{id}/cache/reload [post]
func (h *ArchiveHandler) ReloadCache(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid archive ID format")
		return
	}

	name, err := h.archiveService.ReloadCache(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, APIResponse[TaskData]{Success: true, Data: TaskData{TaskName: name}})
}

// RegisterRoutes registers archive routes
func (h *ArchiveHandler) RegisterRoutes(rg *gin.RouterGroup) {
	archives := rg.Group("/archives")
	{
		archives.POST("", h.Create)
		archives.POST("/search", h.Search)
		archives.GET("/:id", h.GetByID)
		archives.PUT("/:id", h.Update)
		archives.DELETE("/:id", h.Delete)
		archives.POST("/:id/forests", h.AddForests)
		archives.POST("/:id/forests/delete", h.RemoveForests)
		archives.POST("/:id/participants", h.AddParticipants)
		archives.POST("/:id/participants/delete", h.RemoveParticipants)
		archives.POST("/:id/users", h.AddUsers)
		archives.POST("/:id/users/delete", h.RemoveUsers)
		archives.POST("/:id/cache/reload", h.ReloadCache)
	}
}
