package handler

import (
	"github.com/forestcrm/backend/internal/application/tagsvc"
	"github.com/forestcrm/backend/internal/domain/tag"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TagHandler handles tag setting and tag maintenance API endpoints
type TagHandler struct {
	BaseHandler
	tagService *tagsvc.Service
}

// NewTagHandler creates a new TagHandler
func NewTagHandler(tagService *tagsvc.Service) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// BulkTagUpdateRequest merges one tag key/value into several objects
// at once. Other keys already on each object are preserved.
type BulkTagUpdateRequest struct {
	ObjectType tag.ObjectType `json:"object_type" binding:"required"`
	IDs        []string       `json:"ids" binding:"required,min=1,dive,uuid"`
	Key        string         `json:"key" binding:"required"`
	Value      string         `json:"value"`
}

// TagKeyMigrationRequest renames a tag key, optionally across every
// aggregate family. With do_update false the migration is a dry run.
type TagKeyMigrationRequest struct {
	ObjectType tag.ObjectType `json:"object_type"`
	FromKey    string         `json:"from_key" binding:"required"`
	ToKey      string         `json:"to_key" binding:"required"`
	DoUpdate   bool           `json:"do_update"`
}

// ListSettings godoc
// @ID           listTagSettings
// @Summary      List tag settings for one object type
// @Tags         tags
// @Produce      json
// @Param        object_type query string true "Object type" Enums(forest, customer, archive, postalhistory)
// @Success      200 {object} APIResponse[[]tag.Setting]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tags/settings [get]
func (h *TagHandler) ListSettings(c *gin.Context) {
	objectType := tag.ObjectType(c.Query("object_type"))

	settings, err := h.tagService.ListSettings(c.Request.Context(), objectType)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, settings)
}

// CreateSetting godoc
// @ID           createTagSetting
// @Summary      Create a tag setting
// @Tags         tags
// @Accept       json
// @Produce      json
// @Param        request body tagsvc.CreateSettingRequest true "Tag setting creation request"
// @Success      201 {object} APIResponse[tag.Setting]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tags/settings [post]
func (h *TagHandler) CreateSetting(c *gin.Context) {
	var req tagsvc.CreateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if req.AuthorID == nil {
		if userID, err := getUserID(c); err == nil {
			req.AuthorID = &userID
		}
	}

	setting, err := h.tagService.CreateSetting(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, setting)
}

// UpdateSetting godoc
// @ID           updateTagSetting
// @Summary      Update a tag setting
// @Tags         tags
// @Accept       json
// @Produce      json
// @Param        id path string true "Tag setting ID" format(uuid)
// @Param        request body tagsvc.UpdateSettingRequest true "Tag setting update request"
// @Success      200 {object} APIResponse[tag.Setting]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tags/settings/{id} [put]
func (h *TagHandler) UpdateSetting(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tag setting ID format")
		return
	}

	var req tagsvc.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	setting, err := h.tagService.UpdateSetting(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, setting)
}

// DeleteSetting godoc
// @ID           deleteTagSetting
// @Summary      Delete a tag setting
// @Tags         tags
// @Param        id path string true "Tag setting ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tags/settings/{id} [delete]
func (h *TagHandler) DeleteSetting(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tag setting ID format")
		return
	}

	if err := h.tagService.DeleteSetting(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// ListKeys godoc
// @ID           listTagKeys
// @Summary      List the tag keys in use for one object type
// @Tags         tags
// @Produce      json
// @Param        object_type query string true "Object type" Enums(forest, customer, archive, postalhistory)
// @Success      200 {object} APIResponse[[]string]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tags/keys [get]
func (h *TagHandler) ListKeys(c *gin.Context) {
	objectType := tag.ObjectType(c.Query("object_type"))

	keys, err := h.tagService.DistinctKeys(c.Request.Context(), objectType)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, keys)
}

// ListValues godoc
// @ID           listTagValues
// @Summary      List the values stored under one tag key
// @Tags         tags
// @Produce      json
// @Param        object_type query string true "Object type" Enums(forest, customer, archive, postalhistory)
// @Param        key query string true "Tag key"
// @Success      200 {object} APIResponse[[]string]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tags/values [get]
func (h *TagHandler) ListValues(c *gin.Context) {
	objectType := tag.ObjectType(c.Query("object_type"))
	key := c.Query("key")
	if key == "" {
		h.BadRequest(c, "The 'key' query parameter is required")
		return
	}

	values, err := h.tagService.DistinctValues(c.Request.Context(), objectType, key)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, values)
}

// UpdateTags godoc
// @ID           bulkUpdateTags
// @Summary      Assign one tag key/value to several objects at once
// @Tags         tags
// @Accept       json
// @Produce      json
// @Param        request body BulkTagUpdateRequest true "Bulk tag assignment"
// @Success      200 {object} SuccessResponse
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tags/update [post]
func (h *TagHandler) UpdateTags(c *gin.Context) {
	var req BulkTagUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, s := range req.IDs {
		id, err := uuid.Parse(s)
		if err != nil {
			h.BadRequest(c, "Invalid ID format")
			return
		}
		ids = append(ids, id)
	}

	if err := h.tagService.UpdateTags(c.Request.Context(), req.ObjectType, ids, req.Key, req.Value); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, nil)
}

// MigrateKey godoc
// @ID           migrateTagKey
// @Summary      Rename a tag key across stored tag maps
// @Description  Renames from_key to to_key on every object carrying it. Without object_type the rename spans all object types. With do_update false only the affected counts are reported.
// @Tags         tags
// @Accept       json
// @Produce      json
// @Param        request body TagKeyMigrationRequest true "Migration request"
// @Success      200 {object} APIResponse[[]tag.MigrationResult]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tags/migrate [post]
func (h *TagHandler) MigrateKey(c *gin.Context) {
	var req TagKeyMigrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if req.ObjectType == "" {
		results, err := h.tagService.MigrateTagKeyAllObjects(c.Request.Context(), req.FromKey, req.ToKey, req.DoUpdate)
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		h.Success(c, results)
		return
	}

	result, err := h.tagService.MigrateTagKeyObjects(c.Request.Context(), req.ObjectType, req.FromKey, req.ToKey, req.DoUpdate)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, []tag.MigrationResult{result})
}

// RegisterRoutes registers tag routes
func (h *TagHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tags := rg.Group("/tags")
	{
		tags.GET("/settings", h.ListSettings)
		tags.POST("/settings", h.CreateSetting)
		tags.PUT("/settings/:id", h.UpdateSetting)
		tags.DELETE("/settings/:id", h.DeleteSetting)
		tags.GET("/keys", h.ListKeys)
		tags.GET("/values", h.ListValues)
		tags.POST("/update", h.UpdateTags)
		tags.POST("/migrate", h.MigrateKey)
	}
}
