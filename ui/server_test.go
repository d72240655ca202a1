package ui

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"crmqc/adapters/excel"
	"crmqc/app"
	"crmqc/domain/qc"
	"crmqc/internal"
	"crmqc/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type midSampler struct{}

func (midSampler) Uniform(min, max float64) float64 { return (min + max) / 2 }

const labCSV = "Sample,Au,Cu\n" +
	"OREAS 903,1.5,300\n" +
	",,\n" +
	"DL,0.5,10\n" +
	",,\n" +
	",,\n" +
	"S-1,<0.5,120\n" +
	"S-2,1.2,130\n" +
	"CRM,1.4,310\n"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := internal.NewLogger(internal.LogLevelError)
	controller := app.NewSessionController(app.DefaultControllerConfig(), midSampler{}, logger)
	return NewServer(controller, Options{
		Defaults: config.OperatorDefaults{
			Fill:           qc.DefaultFillParams(),
			DuplicateRange: 0.05,
			DuplicateFix:   qc.RangeParams{Min: 0.9, Max: 1.1},
			CrmRange:       0.1,
		},
		Excel:  excel.DefaultExcelConfig(),
		Logger: logger,
	})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func upload(t *testing.T, s *Server, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/session", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRequestsBeforeLoad(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NOT_LOADED", decode(t, rec)["code"])

	rec = do(t, s, http.MethodGet, "/api/columns/x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decode(t, rec)["code"])
}

func TestUploadAndFinalizeCSV(t *testing.T) {
	s := newTestServer(t)

	rec := upload(t, s, "batch7.csv", labCSV)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	summary := decode(t, rec)
	assert.Equal(t, "single_column", summary["mode"])
	assert.Equal(t, "OREAS 903", summary["reference"])

	rec = do(t, s, http.MethodPost, "/api/finalize", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INCOMPLETE_PROCESSING", decode(t, rec)["code"])

	for i := 0; i < 2; i++ {
		rec = do(t, s, http.MethodPost, "/api/next", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, "all_processed", decode(t, rec)["mode"])

	rec = do(t, s, http.MethodPost, "/api/next", "")
	assert.Equal(t, "NAVIGATION_CLOSED", decode(t, rec)["code"])

	rec = do(t, s, http.MethodPost, "/api/finalize", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "batch7_qc.csv")
	assert.Contains(t, rec.Body.String(), "S-1,0.5,120\n")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Sample,Au,Cu\nOREAS 903,1.5,300\n"))
}

func TestJSONLoadAndEditingFlow(t *testing.T) {
	s := newTestServer(t)

	grid := `{"grid": [["Sample","Au"],["CRM-A",1.5],[null,null],["DL",0.5],[null,null],[null,null],["S-1",1.0],["S-2",1.2],["S-3",4.0]]}`
	rec := do(t, s, http.MethodPost, "/api/session", grid)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPut, "/api/columns/1/cells/0", `{"value": 1.1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rows := decode(t, rec)["rows"].([]interface{})
	assert.Equal(t, 1.1, rows[0].(map[string]interface{})["modified"])

	rec = do(t, s, http.MethodPost, "/api/columns/1/duplicates/check", `{"rows": [0,1,2], "range": 0.6}`)
	require.Equal(t, http.StatusOK, rec.Code)
	classes := decode(t, rec)["classifications"].(map[string]interface{})
	assert.Equal(t, "outlier", classes["2"])
	assert.Equal(t, "normal", classes["0"])

	rec = do(t, s, http.MethodPost, "/api/columns/1/duplicates/fix", `{"rows": [0,1,2]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	written := decode(t, rec)["written"].(map[string]interface{})
	assert.Equal(t, 2.07, written["2"])
	assert.Equal(t, 1.2, written["1"])
	assert.NotContains(t, written, "0")

	rec = do(t, s, http.MethodPost, "/api/columns/1/crm/compare", "")
	assert.Equal(t, "INVALID_SELECTION", decode(t, rec)["code"])

	rec = do(t, s, http.MethodPost, "/api/columns/1/crm/select", `{"rows": [1]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodPost, "/api/columns/1/crm/compare", `{"range": 0.25}`)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode(t, rec)
	assert.Equal(t, "within_tolerance", result["classification"])
	assert.Equal(t, 2.0, result["reference_index"])

	rec = do(t, s, http.MethodPut, "/api/columns/1/cells/2", `{"value": 3}`)
	assert.Equal(t, "INVALID_SELECTION", decode(t, rec)["code"])

	rec = do(t, s, http.MethodPost, "/api/columns/1/crm/fix", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "corrected", decode(t, rec)["classification"])

	rec = do(t, s, http.MethodPost, "/api/columns/1/crm/fix", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NO_ACTIVE_REFERENCE", decode(t, rec)["code"])

	rec = do(t, s, http.MethodPost, "/api/limits", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, decode(t, rec)["total"])

	rec = do(t, s, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Greater(t, decode(t, rec)["count"], 5.0)

	rec = do(t, s, http.MethodGet, "/api/report?format=html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<table>")

	rec = do(t, s, http.MethodPost, "/api/finalize?format=xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, excel.FileTypeXLSX.ContentType(), rec.Header().Get("Content-Type"))

	got, err := excel.ReadFrom(t.Context(), rec.Body, excel.FileTypeXLSX, excel.DefaultExcelConfig())
	require.NoError(t, err)
	assert.Equal(t, "1.1", got[6][1].String())
	assert.Equal(t, "1.5", got[7][1].String())
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, upload(t, s, "lab.csv", labCSV).Code)

	rec := do(t, s, http.MethodPost, "/api/columns/1/fill", `{"min": 2, "max": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMS", decode(t, rec)["code"])

	rec = do(t, s, http.MethodPost, "/api/columns/7/fill", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/columns/1/duplicates/check", `{"rows": []}`)
	assert.Equal(t, "EMPTY_SELECTION", decode(t, rec)["code"])

	rec = do(t, s, http.MethodPost, "/api/finalize?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/session", `{"grid": [["only"]]}`)
	assert.Equal(t, "MALFORMED_INPUT", decode(t, rec)["code"])

	rec = do(t, s, http.MethodPost, "/api/columns/1/fill", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3.0, decode(t, rec)["count"])
}

func doInSession(t *testing.T, s *Server, method, path, session string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(SessionHeader, session)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSessionHeaderGuardsReplacedSessions(t *testing.T) {
	s := newTestServer(t)
	rec := upload(t, s, "lab.csv", labCSV)
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decode(t, rec)["id"].(string)

	rec = doInSession(t, s, http.MethodGet, "/api/session", first)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first, decode(t, rec)["id"])

	rec = doInSession(t, s, http.MethodGet, "/api/session", "not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decode(t, rec)["code"])

	rec = upload(t, s, "lab.csv", labCSV)
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode(t, rec)["id"].(string)
	require.NotEqual(t, first, second)

	rec = doInSession(t, s, http.MethodPost, "/api/columns/1/fill", first)
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "SESSION_MISMATCH", body["code"])
	assert.Contains(t, body["error"], second)

	rec = doInSession(t, s, http.MethodPost, "/api/columns/1/fill", second)
	assert.Equal(t, http.StatusOK, rec.Code)
}
