package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/forestcrm/backend/internal/application/importer"
	csvimport "github.com/forestcrm/backend/internal/infrastructure/import"
	"github.com/forestcrm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// maxImportFileSize caps uploaded CSV files at 10 MB
const maxImportFileSize = 10 << 20

// CustomerImportHandler handles the bulk customer CSV upload
type CustomerImportHandler struct {
	BaseHandler
	importer *importer.CustomerImporter
}

// NewCustomerImportHandler creates a new CustomerImportHandler
func NewCustomerImportHandler(imp *importer.CustomerImporter) *CustomerImportHandler {
	return &CustomerImportHandler{importer: imp}
}

// Import godoc
// @ID           importCustomers
// @Summary      Bulk import customers from CSV
// @Description  Applies rows in file order and stops at the first invalid row, reporting its line number and per-column errors
// @Tags         customers
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file (UTF-8, optional BOM)"
// @Success      200 {object} APIResponse[dto.ImportResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      423 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/import [post]
func (h *CustomerImportHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A CSV file is required in the 'file' form field")
		return
	}
	if fileHeader.Size > maxImportFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeBadRequest, "File exceeds the 10MB upload limit")
		return
	}
	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".csv" {
		h.BadRequest(c, "Only .csv files are accepted")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.InternalError(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	result, err := h.importer.Import(c.Request.Context(), file)
	if err != nil {
		var rowErr *csvimport.RowError
		if errors.As(err, &rowErr) {
			details := make([]dto.ValidationDetail, 0, len(rowErr.Fields))
			for field, messages := range rowErr.Fields {
				for _, message := range messages {
					details = append(details, dto.ValidationDetail{Field: field, Message: message})
				}
			}
			resp := dto.NewValidationErrorResponse(
				fmt.Sprintf("Row %d failed validation", rowErr.Line),
				getRequestID(c),
				details,
			)
			c.JSON(http.StatusBadRequest, resp)
			return
		}
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, dto.ImportResponse{
		Created:  result.Created,
		Updated:  result.Updated,
		TaskName: result.TaskName,
	})
}

// RegisterRoutes registers the import route
func (h *CustomerImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/customers/import", h.Import)
}
