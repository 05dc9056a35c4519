package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fieldcatalog/catalog"
	"fieldcatalog/quality"
	apperrors "fieldcatalog/server/errors"
)

// FieldsHandler serves the catalog CRUD endpoints.
type FieldsHandler struct {
	store     *catalog.Store
	validator *quality.FieldValidator
}

// NewFieldsHandler creates a fields handler over the store.
func NewFieldsHandler(store *catalog.Store) *FieldsHandler {
	return &FieldsHandler{
		store:     store,
		validator: quality.NewFieldValidator(),
	}
}

// HandleListFields lists catalog entries.
// @Summary List catalog fields
// @Description Lists catalog entries, optionally filtered by a key/name search and category, most used first
// @Tags fields
// @Produce json
// @Param search query string false "Substring of field_key or canonical_name"
// @Param category query string false "Category filter"
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Page offset"
// @Success 200 {object} map[string]interface{} "Catalog entries"
// @Router /api/fields [get]
func (h *FieldsHandler) HandleListFields(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			SendJSONError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			SendJSONError(c, http.StatusBadRequest, "invalid offset")
			return
		}
		offset = parsed
	}

	fields, err := h.store.List(c.Query("search"), c.Query("category"), limit, offset)
	if err != nil {
		HandleError(c, err)
		return
	}
	total, err := h.store.Count()
	if err != nil {
		HandleError(c, err)
		return
	}

	SendJSONResponse(c, http.StatusOK, gin.H{
		"total":  total,
		"count":  len(fields),
		"fields": fields,
	})
}

// HandleGetField returns one catalog entry by field key.
// @Summary Get a catalog field
// @Tags fields
// @Produce json
// @Param key path string true "Field key"
// @Success 200 {object} catalog.CanonicalField "Catalog entry"
// @Failure 404 {object} map[string]interface{} "Unknown field key"
// @Router /api/fields/{key} [get]
func (h *FieldsHandler) HandleGetField(c *gin.Context) {
	key := c.Param("key")

	field, err := h.store.GetByKey(key)
	if err != nil {
		HandleError(c, err)
		return
	}
	if field == nil {
		SendJSONError(c, http.StatusNotFound, "field not found: "+key)
		return
	}

	SendJSONResponse(c, http.StatusOK, field)
}

// HandleCreateField creates a catalog entry after validation.
// @Summary Create a catalog field
// @Tags fields
// @Accept json
// @Produce json
// @Param request body catalog.CanonicalField true "Catalog entry"
// @Success 201 {object} catalog.CanonicalField "Created entry"
// @Failure 409 {object} map[string]interface{} "Field key already exists"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /api/fields [post]
func (h *FieldsHandler) HandleCreateField(c *gin.Context) {
	var field catalog.CanonicalField
	if err := c.ShouldBindJSON(&field); err != nil {
		appErr := apperrors.NewValidationError("invalid request body", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	if err := h.validator.ValidateField(&field); err != nil {
		HandleError(c, err)
		return
	}

	if err := h.store.Create(&field); err != nil {
		if err == catalog.ErrKeyExists {
			SendJSONError(c, http.StatusConflict, "field key already exists: "+field.FieldKey)
			return
		}
		HandleError(c, err)
		return
	}

	SendJSONResponse(c, http.StatusCreated, field)
}

// HandleUpdateField applies a partial update to a catalog entry. The
// identity properties field_key, field_type and id cannot change.
// @Summary Update a catalog field
// @Tags fields
// @Accept json
// @Produce json
// @Param key path string true "Field key"
// @Param request body map[string]interface{} true "Properties to change"
// @Success 200 {object} catalog.CanonicalField "Updated entry"
// @Failure 404 {object} map[string]interface{} "Unknown field key"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /api/fields/{key} [patch]
func (h *FieldsHandler) HandleUpdateField(c *gin.Context) {
	key := c.Param("key")

	field, err := h.store.GetByKey(key)
	if err != nil {
		HandleError(c, err)
		return
	}
	if field == nil {
		SendJSONError(c, http.StatusNotFound, "field not found: "+key)
		return
	}

	var overrides map[string]interface{}
	if err := c.ShouldBindJSON(&overrides); err != nil {
		appErr := apperrors.NewValidationError("invalid request body", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	if err := h.validator.ValidateOverrides(overrides); err != nil {
		HandleError(c, err)
		return
	}
	if err := applyOverrides(field, overrides); err != nil {
		HandleError(c, err)
		return
	}
	if err := h.validator.ValidateField(field); err != nil {
		HandleError(c, err)
		return
	}

	if err := h.store.Update(field); err != nil {
		HandleError(c, err)
		return
	}

	SendJSONResponse(c, http.StatusOK, field)
}

// applyOverrides folds a validated override map into the entry by a
// marshal round-trip, so JSON names and types line up with the model.
func applyOverrides(field *catalog.CanonicalField, overrides map[string]interface{}) error {
	data, err := json.Marshal(overrides)
	if err != nil {
		return apperrors.NewValidationError("invalid override values", err)
	}
	if err := json.Unmarshal(data, field); err != nil {
		return apperrors.NewValidationError("invalid override values", err)
	}
	return nil
}
