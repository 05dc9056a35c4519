package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldcatalog/catalog"
	"fieldcatalog/matching"
	apperrors "fieldcatalog/server/errors"
)

// DuplicatesHandler serves duplicate detection and merging.
type DuplicatesHandler struct {
	store *catalog.Store
	dedup *matching.Deduplicator
}

// NewDuplicatesHandler creates a duplicates handler over the store.
func NewDuplicatesHandler(store *catalog.Store) *DuplicatesHandler {
	return &DuplicatesHandler{
		store: store,
		dedup: matching.NewDeduplicator(),
	}
}

// HandleListDuplicates scans the catalog for near-duplicate pairs.
// @Summary List duplicate candidates
// @Description Flags catalog pairs of the same field type whose names are nearly identical
// @Tags duplicates
// @Produce json
// @Success 200 {object} map[string]interface{} "Duplicate pairs, primary entry first"
// @Router /api/duplicates [get]
func (h *DuplicatesHandler) HandleListDuplicates(c *gin.Context) {
	fields, err := h.store.All()
	if err != nil {
		HandleError(c, err)
		return
	}

	pairs := h.dedup.FindDuplicates(fields)

	SendJSONResponse(c, http.StatusOK, gin.H{
		"total": len(pairs),
		"pairs": pairs,
	})
}

// MergeRequest names the surviving entry and the entry to fold into it.
type MergeRequest struct {
	PrimaryID   int64 `json:"primary_id"`
	DuplicateID int64 `json:"duplicate_id"`
}

// HandleMergeDuplicates merges a duplicate entry into a primary one.
// @Summary Merge two catalog fields
// @Description Unions aliases, sums usage counts, repoints form references and deletes the duplicate, atomically
// @Tags duplicates
// @Accept json
// @Produce json
// @Param request body MergeRequest true "Primary and duplicate ids"
// @Success 200 {object} catalog.CanonicalField "Merged entry"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 404 {object} map[string]interface{} "Unknown field id"
// @Failure 409 {object} map[string]interface{} "Fields are not mergeable"
// @Router /api/duplicates/merge [post]
func (h *DuplicatesHandler) HandleMergeDuplicates(c *gin.Context) {
	var req MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewValidationError("invalid request body", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	if req.PrimaryID == 0 || req.DuplicateID == 0 {
		SendJSONError(c, http.StatusBadRequest, "primary_id and duplicate_id are required")
		return
	}
	if req.PrimaryID == req.DuplicateID {
		SendJSONError(c, http.StatusBadRequest, "cannot merge a field into itself")
		return
	}

	primary, err := h.store.GetByID(req.PrimaryID)
	if err != nil {
		HandleError(c, err)
		return
	}
	duplicate, err := h.store.GetByID(req.DuplicateID)
	if err != nil {
		HandleError(c, err)
		return
	}
	if primary == nil || duplicate == nil {
		SendJSONError(c, http.StatusNotFound, "field not found")
		return
	}
	if primary.FieldType != duplicate.FieldType {
		SendJSONError(c, http.StatusConflict, "fields of different types cannot be merged")
		return
	}

	merged, err := h.store.Merge(req.PrimaryID, req.DuplicateID)
	if err != nil {
		HandleError(c, err)
		return
	}

	SendJSONResponse(c, http.StatusOK, merged)
}
