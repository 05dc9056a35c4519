package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldcatalog/catalog"
	"fieldcatalog/matching"
	apperrors "fieldcatalog/server/errors"
)

// MatchHandler serves the field matching endpoints.
type MatchHandler struct {
	store   *catalog.Store
	matcher *matching.Matcher
}

// NewMatchHandler creates a match handler over the store and matcher.
func NewMatchHandler(store *catalog.Store, matcher *matching.Matcher) *MatchHandler {
	return &MatchHandler{store: store, matcher: matcher}
}

// MatchResponse is one matching decision, including the new-entry
// suggestion when nothing matched.
type MatchResponse struct {
	Field      catalog.IncomingFieldDescriptor `json:"field"`
	Result     *catalog.MatchResult            `json:"result"`
	Suggestion *catalog.NewEntrySuggestion     `json:"suggestion,omitempty"`
}

// HandleMatchField resolves one incoming descriptor against the catalog.
// @Summary Match a field against the catalog
// @Description Runs the matching pipeline (exact key, alias, purpose, fuzzy) for one field descriptor
// @Tags matching
// @Accept json
// @Produce json
// @Param request body catalog.IncomingFieldDescriptor true "Field descriptor"
// @Success 200 {object} MatchResponse "Matching decision"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Router /api/fields/match [post]
func (h *MatchHandler) HandleMatchField(c *gin.Context) {
	var descriptor catalog.IncomingFieldDescriptor
	if err := c.ShouldBindJSON(&descriptor); err != nil {
		appErr := apperrors.NewValidationError("invalid request body", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	response, err := h.matchOne(&descriptor)
	if err != nil {
		HandleError(c, err)
		return
	}

	SendJSONResponse(c, http.StatusOK, response)
}

// BatchMatchRequest is a list of descriptors to resolve in one call.
type BatchMatchRequest struct {
	Fields []catalog.IncomingFieldDescriptor `json:"fields"`
}

// HandleMatchBatch resolves a batch of descriptors against the catalog.
// @Summary Match a batch of fields
// @Tags matching
// @Accept json
// @Produce json
// @Param request body BatchMatchRequest true "Field descriptors"
// @Success 200 {object} map[string]interface{} "Matching decisions"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Router /api/fields/match/batch [post]
func (h *MatchHandler) HandleMatchBatch(c *gin.Context) {
	var req BatchMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewValidationError("invalid request body", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	if len(req.Fields) == 0 {
		SendJSONError(c, http.StatusBadRequest, "fields list is empty")
		return
	}

	responses := make([]*MatchResponse, 0, len(req.Fields))
	for i := range req.Fields {
		response, err := h.matchOne(&req.Fields[i])
		if err != nil {
			HandleError(c, err)
			return
		}
		responses = append(responses, response)
	}

	SendJSONResponse(c, http.StatusOK, gin.H{
		"total":   len(responses),
		"results": responses,
	})
}

func (h *MatchHandler) matchOne(descriptor *catalog.IncomingFieldDescriptor) (*MatchResponse, error) {
	if descriptor.Name == "" && descriptor.Label == "" {
		return nil, apperrors.NewValidationError("field name or label is required", nil)
	}

	result, err := h.matcher.Match(descriptor, h.store)
	if err != nil {
		return nil, err
	}

	response := &MatchResponse{Field: *descriptor, Result: result}
	if !result.Matched() {
		suggestion, err := h.matcher.SuggestNewEntry(descriptor)
		if err != nil {
			return nil, err
		}
		response.Suggestion = suggestion
	}
	return response, nil
}
