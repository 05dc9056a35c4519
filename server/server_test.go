package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcatalog/catalog"
	"fieldcatalog/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Port:           "8080",
		DatabasePath:   ":memory:",
		MaxOpenConns:   1,
		MaxIdleConns:   1,
		LogLevel:       "ERROR",
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}

	srv, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Store().Close() })
	return srv
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "identity")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), out))
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestServer(t).Router()

	recorder := doJSON(t, router, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]interface{}
	decodeBody(t, recorder, &body)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, recorder.Header().Get("X-Request-ID"))
}

func TestCreateAndGetField(t *testing.T) {
	router := newTestServer(t).Router()

	recorder := doJSON(t, router, http.MethodPost, "/api/fields", catalog.CanonicalField{
		FieldKey:      "first_name",
		CanonicalName: "First Name",
		FieldType:     catalog.FieldTypeText,
		Category:      "Personal Information",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = doJSON(t, router, http.MethodGet, "/api/fields/first_name", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var field catalog.CanonicalField
	decodeBody(t, recorder, &field)
	assert.Equal(t, "First Name", field.CanonicalName)

	recorder = doJSON(t, router, http.MethodGet, "/api/fields/no_such_field", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCreateFieldConflict(t *testing.T) {
	router := newTestServer(t).Router()

	field := catalog.CanonicalField{
		FieldKey:      "email",
		CanonicalName: "Email",
		FieldType:     catalog.FieldTypeEmail,
	}
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/fields", field).Code)
	assert.Equal(t, http.StatusConflict, doJSON(t, router, http.MethodPost, "/api/fields", field).Code)
}

func TestCreateFieldValidation(t *testing.T) {
	router := newTestServer(t).Router()

	recorder := doJSON(t, router, http.MethodPost, "/api/fields", catalog.CanonicalField{
		FieldKey:  "bad",
		FieldType: "slider",
	})
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

	var body map[string]interface{}
	decodeBody(t, recorder, &body)
	assert.NotEmpty(t, body["violations"])
}

func TestUpdateFieldImmutable(t *testing.T) {
	router := newTestServer(t).Router()

	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/fields", catalog.CanonicalField{
		FieldKey:      "city",
		CanonicalName: "City",
		FieldType:     catalog.FieldTypeText,
	}).Code)

	recorder := doJSON(t, router, http.MethodPatch, "/api/fields/city",
		map[string]interface{}{"field_type": "select"})
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

	recorder = doJSON(t, router, http.MethodPatch, "/api/fields/city",
		map[string]interface{}{"usage_count": 1000})
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

	recorder = doJSON(t, router, http.MethodPatch, "/api/fields/city",
		map[string]interface{}{"canonical_name": "City / Town"})
	require.Equal(t, http.StatusOK, recorder.Code)

	var field catalog.CanonicalField
	decodeBody(t, recorder, &field)
	assert.Equal(t, "City / Town", field.CanonicalName)
}

func TestMatchEndpoint(t *testing.T) {
	router := newTestServer(t).Router()

	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/fields", catalog.CanonicalField{
		FieldKey:      "zip_code",
		CanonicalName: "ZIP Code",
		FieldType:     catalog.FieldTypeText,
		Category:      "Contact Information",
	}).Code)

	recorder := doJSON(t, router, http.MethodPost, "/api/fields/match", catalog.IncomingFieldDescriptor{
		Name: "Postal Code",
		Type: catalog.FieldTypeText,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		Result struct {
			MatchType  string  `json:"match_type"`
			Confidence float64 `json:"confidence"`
		} `json:"result"`
	}
	decodeBody(t, recorder, &response)
	assert.Equal(t, "alias_match", response.Result.MatchType)
	assert.Equal(t, 0.95, response.Result.Confidence)

	// Unknown field: no match, suggestion present.
	recorder = doJSON(t, router, http.MethodPost, "/api/fields/match", catalog.IncomingFieldDescriptor{
		Name: "Favorite Color",
		Type: catalog.FieldTypeText,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var miss struct {
		Result struct {
			MatchType string `json:"match_type"`
		} `json:"result"`
		Suggestion *catalog.NewEntrySuggestion `json:"suggestion"`
	}
	decodeBody(t, recorder, &miss)
	assert.Equal(t, "none", miss.Result.MatchType)
	require.NotNil(t, miss.Suggestion)
	assert.Equal(t, "favorite_color", miss.Suggestion.FieldKey)
}

func TestMatchBatchEndpoint(t *testing.T) {
	router := newTestServer(t).Router()

	recorder := doJSON(t, router, http.MethodPost, "/api/fields/match/batch", map[string]interface{}{
		"fields": []catalog.IncomingFieldDescriptor{
			{Name: "First Name", Type: catalog.FieldTypeText},
			{Name: "Email", Type: catalog.FieldTypeEmail},
		},
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Total int `json:"total"`
	}
	decodeBody(t, recorder, &body)
	assert.Equal(t, 2, body.Total)

	recorder = doJSON(t, router, http.MethodPost, "/api/fields/match/batch",
		map[string]interface{}{"fields": []catalog.IncomingFieldDescriptor{}})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestApplicationTypeAndDuplicatesFlow(t *testing.T) {
	router := newTestServer(t).Router()

	// Two boards import near-identical email fields under keys the
	// matcher cannot bridge (different types would never merge; these
	// share the type but miss the alias table).
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/fields", catalog.CanonicalField{
		FieldKey:      "applicant_electronic_mail",
		CanonicalName: "Electronic Mail Address",
		FieldType:     catalog.FieldTypeEmail,
		UsageCount:    8,
	}).Code)
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/fields", catalog.CanonicalField{
		FieldKey:      "electronic_mail_address",
		CanonicalName: "Electronic Mail  Address",
		FieldType:     catalog.FieldTypeEmail,
		UsageCount:    2,
	}).Code)

	recorder := doJSON(t, router, http.MethodGet, "/api/duplicates", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var duplicates struct {
		Total int `json:"total"`
		Pairs []struct {
			Field struct {
				ID       int64  `json:"id"`
				FieldKey string `json:"field_key"`
			} `json:"field"`
			Duplicate struct {
				ID int64 `json:"id"`
			} `json:"duplicate"`
		} `json:"pairs"`
	}
	decodeBody(t, recorder, &duplicates)
	require.Equal(t, 1, duplicates.Total)
	assert.Equal(t, "applicant_electronic_mail", duplicates.Pairs[0].Field.FieldKey)

	recorder = doJSON(t, router, http.MethodPost, "/api/duplicates/merge", map[string]int64{
		"primary_id":   duplicates.Pairs[0].Field.ID,
		"duplicate_id": duplicates.Pairs[0].Duplicate.ID,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var merged catalog.CanonicalField
	decodeBody(t, recorder, &merged)
	assert.Equal(t, 10, merged.UsageCount, "usage counts summed")

	recorder = doJSON(t, router, http.MethodGet, "/api/duplicates", nil)
	decodeBody(t, recorder, &duplicates)
	assert.Zero(t, duplicates.Total)
}

func TestCreateApplicationTypeEndpoint(t *testing.T) {
	router := newTestServer(t).Router()

	recorder := doJSON(t, router, http.MethodPost, "/api/application-types", map[string]interface{}{
		"name":  "RN License",
		"board": "Nursing Board",
		"fields": []catalog.IncomingFieldDescriptor{
			{Name: "first_name", Label: "First Name", Type: catalog.FieldTypeText},
			{Name: "email", Label: "Email Address", Type: catalog.FieldTypeEmail},
		},
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var result struct {
		Total   int `json:"total"`
		Created int `json:"created"`
	}
	decodeBody(t, recorder, &result)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Created)

	recorder = doJSON(t, router, http.MethodPost, "/api/application-types",
		map[string]interface{}{"name": "", "fields": []catalog.IncomingFieldDescriptor{}})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestImportCSVEndpoint(t *testing.T) {
	router := newTestServer(t).Router()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "form.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("field_name,field_type,label\nfirst_name,text,First Name\n"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("name", "RN License"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import/csv", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept-Encoding", "identity")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var result struct {
		Created int `json:"created"`
	}
	decodeBody(t, recorder, &result)
	assert.Equal(t, 1, result.Created)

	// The imported field is now in the catalog.
	recorder = doJSON(t, router, http.MethodGet, "/api/fields/first_name", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}
