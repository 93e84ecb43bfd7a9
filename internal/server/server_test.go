package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/qdata-clean/internal/analysis"
	"github.com/KaramelBytes/qdata-clean/internal/cleaning"
	"github.com/KaramelBytes/qdata-clean/internal/export"
	"github.com/KaramelBytes/qdata-clean/internal/workspace"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sensorsCSV = "t,v,label\n1,10,a\n,,\n3,30,c\n"

func newTestServer(t *testing.T, cfg Config) (*Server, *workspace.Workspace) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC))
	ws := workspace.New("", workspace.WithClock(clock))
	if cfg.Export == (export.Options{}) {
		cfg.Export = export.DefaultOptions()
	}
	return New(cfg, ws, cleaning.New(cleaning.DefaultConfig(), nil), clock, nil), ws
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, s *Server, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, s *Server, name, content string) UploadSummary {
	t.Helper()
	body, ct := multipartBody(t, map[string]string{name: content})
	rec := do(t, s, http.MethodPost, "/api/uploads", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out []UploadSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	return out[0]
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := do(t, s, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","uploads":0}`, rec.Body.String())
}

func TestOptionsCatalog(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := do(t, s, http.MethodGet, "/api/options", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Cleaning       []cleaning.OptionInfo `json:"cleaning"`
		DefaultOptions []string              `json:"default_options"`
		ExportFormats  []export.FormatInfo   `json:"export_formats"`
		ChartMaxPoints int                   `json:"chart_max_points"`
		FileTypes      []string              `json:"file_types"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Cleaning, 5)
	assert.Equal(t, []string{"remove_nulls", "standardize_format"}, got.DefaultOptions)
	assert.Len(t, got.ExportFormats, 4)
	assert.Equal(t, analysis.DefaultChartPoints, got.ChartMaxPoints)
	assert.Equal(t, []string{".csv", ".json"}, got.FileTypes)
}

func TestUploadListAndDetail(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	u := upload(t, s, "sensors.csv", sensorsCSV)
	assert.Equal(t, "sensors.csv", u.Name)
	assert.Equal(t, 3, u.Rows)
	assert.Equal(t, []string{"t", "v", "label"}, u.Columns)
	assert.Equal(t, "text/csv", u.MimeType)
	assert.Equal(t, 67, u.Quality)
	assert.False(t, u.Processed)

	rec := do(t, s, http.MethodGet, "/api/uploads", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []UploadSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, u.ID, list[0].ID)

	rec = do(t, s, http.MethodGet, "/api/uploads/"+u.ID[:8], nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Upload  UploadSummary     `json:"upload"`
		Profile ProfileResponse   `json:"profile"`
		Preview []json.RawMessage `json:"preview"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, u.ID, detail.Upload.ID)
	require.Len(t, detail.Profile.Columns, 3)
	assert.Equal(t, analysis.TypeNumeric, detail.Profile.Columns[1].Type)
	assert.Equal(t, analysis.TypeText, detail.Profile.Columns[2].Type)
	assert.Len(t, detail.Preview, 3)
}

func TestUploadErrors(t *testing.T) {
	s, ws := newTestServer(t, Config{})

	body, ct := multipartBody(t, map[string]string{"notes.txt": "hello"})
	rec := do(t, s, http.MethodPost, "/api/uploads", body, ct)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	body, ct = multipartBody(t, map[string]string{"bad.json": `{"a":`})
	rec = do(t, s, http.MethodPost, "/api/uploads", body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body, ct = multipartBody(t, map[string]string{"ok.csv": sensorsCSV, "bad.json": "[1,2]"})
	rec = do(t, s, http.MethodPost, "/api/uploads", body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 0, ws.Len(), "a failed batch adds nothing")

	body, ct = multipartBody(t, map[string]string{})
	rec = do(t, s, http.MethodPost, "/api/uploads", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadTooLarge(t *testing.T) {
	s, _ := newTestServer(t, Config{MaxUploadBytes: 64})
	body, ct := multipartBody(t, map[string]string{"big.csv": "a\n" + strings.Repeat("1\n", 200)})
	rec := do(t, s, http.MethodPost, "/api/uploads", body, ct)
	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, rec.Code)
}

func TestCleanAndStats(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	u := upload(t, s, "sensors.csv", sensorsCSV)

	rec := do(t, s, http.MethodGet, "/api/uploads/"+u.ID+"/stats?column=v", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st analysis.SummaryStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 2, st.Count)
	assert.Equal(t, 20.0, st.Mean)

	rec = do(t, s, http.MethodGet, "/api/uploads/"+u.ID+"/stats?column=label", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/uploads/"+u.ID+"/clean", bytes.NewBufferString(`{"options":["normalize_numbers","remove_nulls"]}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res CleanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Upload.Processed)
	assert.Equal(t, 2, res.Upload.Rows)
	require.Len(t, res.Steps, 2)
	assert.Equal(t, cleaning.RemoveNulls, res.Steps[0].Option)
	assert.Equal(t, 1, res.Steps[0].Dropped())
	assert.Equal(t, "0.0000", res.Preview.Row(0).Get("v").Text())
	assert.Equal(t, "1.0000", res.Preview.Row(1).Get("v").Text())

	rec = do(t, s, http.MethodGet, "/api/uploads/"+u.ID+"/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []analysis.SummaryStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 2)
	assert.Equal(t, "t", all[0].Column)
	assert.Equal(t, 1.0, all[1].Max)
}

func TestCleanDefaultsAndErrors(t *testing.T) {
	s, _ := newTestServer(t, Config{DefaultOptions: []cleaning.Option{cleaning.RemoveNulls}})
	u := upload(t, s, "sensors.csv", sensorsCSV)

	rec := do(t, s, http.MethodPost, "/api/uploads/"+u.ID+"/clean", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res CleanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, []cleaning.Option{cleaning.RemoveNulls}, res.Upload.Options)

	rec = do(t, s, http.MethodPost, "/api/uploads/"+u.ID+"/clean", bytes.NewBufferString(`{"options":["sparkle"]}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/uploads/"+u.ID+"/clean", bytes.NewBufferString(`{`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/uploads/missing/clean", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCleanStrictDegenerate(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ws := workspace.New("", workspace.WithClock(clock))
	cfg := cleaning.DefaultConfig()
	cfg.NormalizeStrict = true
	s := New(Config{}, ws, cleaning.New(cfg, nil), clock, nil)
	u := upload(t, s, "flat.csv", "a\n5\n5\n")

	rec := do(t, s, http.MethodPost, "/api/uploads/"+u.ID+"/clean", bytes.NewBufferString(`{"options":["normalize_numbers"]}`), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	got, err := ws.Get(u.ID)
	require.NoError(t, err)
	assert.False(t, got.Processed)
}

func TestChart(t *testing.T) {
	s, _ := newTestServer(t, Config{ChartMaxPoints: 2})
	u := upload(t, s, "sensors.csv", "t,v\n1,10\n2,20\n3,30\n")

	rec := do(t, s, http.MethodGet, "/api/uploads/"+u.ID+"/chart?x=t&y=v", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got ChartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Points, 2)
	assert.Equal(t, 20.0, got.Points[1].Y)
	assert.Equal(t, []string{"t", "v"}, got.NumericColumns)

	rec = do(t, s, http.MethodGet, "/api/uploads/"+u.ID+"/chart?x=t&y=v&limit=1", nil, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Points, 1)

	rec = do(t, s, http.MethodGet, "/api/uploads/"+u.ID+"/chart?x=t", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/uploads/"+u.ID+"/chart?x=t&y=v&limit=zero", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	u := upload(t, s, "sensors.v2.csv", "t,v\n1,10\n2,20\n")

	rec := do(t, s, http.MethodGet, "/api/uploads/"+u.ID+"/export", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t,v\n1,10\n2,20", rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="sensors.v2_processed_2024-03-05.csv"`, rec.Header().Get("Content-Disposition"))

	rec = do(t, s, http.MethodGet, "/api/uploads/"+u.ID+"/export?format=json&metadata=false", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"t":"1","v":"10"},{"t":"2","v":"20"}]`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/uploads/"+u.ID+"/export?format=json", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Metadata export.Metadata `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "sensors.v2.csv", env.Metadata.OriginalFile)
	assert.Equal(t, "2024-03-05T09:30:00.000Z", env.Metadata.ProcessedAt)

	rec = do(t, s, http.MethodGet, "/api/uploads/"+u.ID+"/export?compress=true", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))

	rec = do(t, s, http.MethodGet, "/api/uploads/"+u.ID+"/export?format=xlsx", nil, "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/uploads/"+u.ID+"/export?format=pdf", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/uploads/"+u.ID+"/export?metadata=maybe", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteUpload(t *testing.T) {
	s, ws := newTestServer(t, Config{})
	u := upload(t, s, "sensors.csv", sensorsCSV)

	rec := do(t, s, http.MethodDelete, "/api/uploads/"+u.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, ws.Len())

	rec = do(t, s, http.MethodGet, "/api/uploads/"+u.ID+"/profile", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAmbiguousReference(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	upload(t, s, "same.csv", "a\n1\n")
	upload(t, s, "same.csv", "a\n2\n")
	rec := do(t, s, http.MethodGet, "/api/uploads/same.csv", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUploadRateLimited(t *testing.T) {
	s, _ := newTestServer(t, Config{RatePerMinute: 1, RateBurst: 1})
	upload(t, s, "a.csv", "a\n1\n")

	body, ct := multipartBody(t, map[string]string{"b.csv": "a\n1\n"})
	rec := do(t, s, http.MethodPost, "/api/uploads", body, ct)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = do(t, s, http.MethodGet, "/api/uploads", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code, "reads are not limited")
}
