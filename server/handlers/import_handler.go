package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fieldcatalog/catalog"
	"fieldcatalog/extractors"
	"fieldcatalog/importer"
	apperrors "fieldcatalog/server/errors"
)

// Uploads over this size are rejected before parsing.
const maxUploadBytes = 16 << 20

// ImportHandler serves form definition imports (CSV, XLSX, HTML) and
// application type creation.
type ImportHandler struct {
	store   *catalog.Store
	service *importer.ImportService
}

// NewImportHandler creates an import handler over the store.
func NewImportHandler(store *catalog.Store, service *importer.ImportService) *ImportHandler {
	return &ImportHandler{store: store, service: service}
}

// HandleImportCSV imports a CSV form definition.
// @Summary Import a CSV form definition
// @Description Parses the uploaded CSV, resolves every field against the catalog and stores the form as an application type. Pass dry_run=true to preview without writing.
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param name formData string true "Application type name"
// @Param board formData string false "Licensing board"
// @Param dry_run query bool false "Preview without writing"
// @Success 200 {object} importer.ImportResult "Import summary"
// @Failure 400 {object} map[string]interface{} "Invalid upload"
// @Router /api/import/csv [post]
func (h *ImportHandler) HandleImportCSV(c *gin.Context) {
	data, ok := readUpload(c)
	if !ok {
		return
	}

	form, err := importer.ParseCSVData(data)
	if err != nil {
		appErr := apperrors.NewValidationError("could not parse csv: "+err.Error(), err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	h.runImport(c, form)
}

// HandleImportXLSX imports an Excel form definition.
// @Summary Import an XLSX form definition
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "XLSX file"
// @Param name formData string true "Application type name"
// @Param board formData string false "Licensing board"
// @Param dry_run query bool false "Preview without writing"
// @Success 200 {object} importer.ImportResult "Import summary"
// @Failure 400 {object} map[string]interface{} "Invalid upload"
// @Router /api/import/xlsx [post]
func (h *ImportHandler) HandleImportXLSX(c *gin.Context) {
	data, ok := readUpload(c)
	if !ok {
		return
	}

	form, err := importer.ParseXLSXData(data)
	if err != nil {
		appErr := apperrors.NewValidationError("could not parse workbook: "+err.Error(), err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	h.runImport(c, form)
}

// HandleImportHTML imports fields extracted from an HTML form.
// @Summary Import an HTML form
// @Description Extracts input, select and textarea controls from the uploaded HTML document and imports them as a form definition
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "HTML document"
// @Param name formData string true "Application type name"
// @Param board formData string false "Licensing board"
// @Param dry_run query bool false "Preview without writing"
// @Success 200 {object} importer.ImportResult "Import summary"
// @Failure 400 {object} map[string]interface{} "Invalid upload"
// @Router /api/import/html [post]
func (h *ImportHandler) HandleImportHTML(c *gin.Context) {
	data, ok := readUpload(c)
	if !ok {
		return
	}

	fields, err := extractors.ExtractFormFields(string(data))
	if err != nil {
		appErr := apperrors.NewValidationError("could not extract form fields: "+err.Error(), err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	h.runImport(c, &importer.ParsedForm{Fields: fields})
}

// ApplicationTypeRequest creates a form definition directly from JSON
// descriptors instead of an uploaded file.
type ApplicationTypeRequest struct {
	Name   string                            `json:"name"`
	Board  string                            `json:"board,omitempty"`
	Fields []catalog.IncomingFieldDescriptor `json:"fields"`
}

// HandleCreateApplicationType imports a form definition posted as JSON.
// @Summary Create an application type
// @Tags import
// @Accept json
// @Produce json
// @Param request body ApplicationTypeRequest true "Form definition"
// @Success 200 {object} importer.ImportResult "Import summary"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Router /api/application-types [post]
func (h *ImportHandler) HandleCreateApplicationType(c *gin.Context) {
	var req ApplicationTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewValidationError("invalid request body", err)
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	if req.Name == "" {
		SendJSONError(c, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Fields) == 0 {
		SendJSONError(c, http.StatusBadRequest, "fields list is empty")
		return
	}

	result, err := h.service.ImportForm(req.Name, req.Board, &importer.ParsedForm{Fields: req.Fields})
	if err != nil {
		HandleError(c, err)
		return
	}

	SendJSONResponse(c, http.StatusOK, result)
}

// runImport either previews or persists the parsed form, depending on
// the dry_run flag.
func (h *ImportHandler) runImport(c *gin.Context, form *importer.ParsedForm) {
	if dryRun, _ := strconv.ParseBool(c.Query("dry_run")); dryRun {
		resolved, err := h.service.Preview(form)
		if err != nil {
			HandleError(c, err)
			return
		}
		SendJSONResponse(c, http.StatusOK, gin.H{
			"dry_run":  true,
			"total":    len(resolved),
			"resolved": resolved,
			"warnings": form.Warnings,
		})
		return
	}

	name := c.PostForm("name")
	if name == "" {
		SendJSONError(c, http.StatusBadRequest, "name is required")
		return
	}

	result, err := h.service.ImportForm(name, c.PostForm("board"), form)
	if err != nil {
		HandleError(c, err)
		return
	}

	SendJSONResponse(c, http.StatusOK, result)
}

// readUpload pulls the uploaded file out of the multipart form.
func readUpload(c *gin.Context) ([]byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		SendJSONError(c, http.StatusBadRequest, "file upload is required")
		return nil, false
	}
	if fileHeader.Size > maxUploadBytes {
		SendJSONError(c, http.StatusRequestEntityTooLarge, "file is too large")
		return nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		SendJSONError(c, http.StatusBadRequest, "could not open upload")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		SendJSONError(c, http.StatusBadRequest, "could not read upload")
		return nil, false
	}
	if len(data) > maxUploadBytes {
		SendJSONError(c, http.StatusRequestEntityTooLarge, "file is too large")
		return nil, false
	}
	return data, true
}
