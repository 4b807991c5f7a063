package dto

// ImportResponse represents the result of a completed bulk CSV import
// @Description Result of a customer bulk import
type ImportResponse struct {
	Created int `json:"created" example:"12"`
	Updated int `json:"updated" example:"3"`
	// TaskName identifies the deferred cache refresh, empty when no
	// forest links changed
	TaskName string `json:"task_name,omitempty" example:"customer_import_cache_1a2b3c"`
}
