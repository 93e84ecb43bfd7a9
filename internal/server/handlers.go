package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/qdata-clean/internal/analysis"
	"github.com/KaramelBytes/qdata-clean/internal/cleaning"
	"github.com/KaramelBytes/qdata-clean/internal/export"
	"github.com/KaramelBytes/qdata-clean/internal/metrics"
	"github.com/KaramelBytes/qdata-clean/internal/parser"
	"github.com/KaramelBytes/qdata-clean/internal/table"
	"github.com/KaramelBytes/qdata-clean/internal/utils"
	"github.com/KaramelBytes/qdata-clean/internal/workspace"
	"github.com/go-chi/chi/v5"
)

const previewRows = 10

// UploadSummary is an upload without its data.
type UploadSummary struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Size        int64             `json:"size"`
	SizeLabel   string            `json:"size_label"`
	MimeType    string            `json:"mime_type"`
	Rows        int               `json:"rows"`
	Columns     []string          `json:"columns"`
	Quality     int               `json:"quality"`
	Processed   bool              `json:"processed"`
	Options     []cleaning.Option `json:"options,omitempty"`
	UploadedAt  time.Time         `json:"uploaded_at"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty"`
}

func summarize(u *workspace.Upload) UploadSummary {
	cols := u.Table.Columns()
	if cols == nil {
		cols = []string{}
	}
	return UploadSummary{
		ID:          u.ID,
		Name:        u.Name,
		Size:        u.Size,
		SizeLabel:   utils.FormatFileSize(u.Size),
		MimeType:    u.MimeType,
		Rows:        u.Rows(),
		Columns:     cols,
		Quality:     analysis.QualityScore(u.Table),
		Processed:   u.Processed,
		Options:     u.Options,
		UploadedAt:  u.UploadedAt,
		ProcessedAt: u.ProcessedAt,
	}
}

// ProfileResponse is the column profile of an upload.
type ProfileResponse struct {
	Columns    []analysis.ColumnProfile `json:"columns"`
	Quality    int                      `json:"quality"`
	Unprofiled []string                 `json:"unprofiled,omitempty"`
}

func profileOf(t *table.Table) ProfileResponse {
	return ProfileResponse{
		Columns:    analysis.Profile(t),
		Quality:    analysis.QualityScore(t),
		Unprofiled: analysis.UnprofiledColumns(t),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, workspace.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workspace.ErrAmbiguous):
		status = http.StatusConflict
	case errors.Is(err, parser.ErrUnsupportedFormat):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, parser.ErrParse), errors.Is(err, cleaning.ErrDegenerateColumn):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, cleaning.ErrUnknownOption), errors.Is(err, export.ErrUnknownFormat), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, export.ErrExternalFormat):
		status = http.StatusNotImplemented
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func (s *Server) upload(r *http.Request) (*workspace.Upload, error) {
	return s.ws.Resolve(chi.URLParam(r, "id"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "uploads": s.ws.Len()})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	defaults := s.cfg.DefaultOptions
	if defaults == nil {
		defaults = cleaning.DefaultOptions()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cleaning":         cleaning.Catalog,
		"default_options":  defaults,
		"export_formats":   export.Formats,
		"export_options":   export.OptionCatalog,
		"export_defaults":  s.cfg.Export,
		"chart_types":      analysis.ChartTypes,
		"chart_max_points": s.cfg.ChartMaxPoints,
		"file_types":       parser.Supported(),
	})
}

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	list := s.ws.List()
	out := make([]UploadSummary, len(list))
	for i, u := range list {
		out[i] = summarize(u)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, err)
			return
		}
		s.writeError(w, badRequest("invalid multipart form: %v", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		s.writeError(w, badRequest("no files in form field %q", "files"))
		return
	}
	sources := make([]workspace.Source, len(files))
	for i, fh := range files {
		sources[i] = multipartSource(fh)
	}
	ups, err := s.ws.AddFiles(r.Context(), sources)
	if err != nil {
		for _, fh := range files {
			metrics.RecordUpload(formatOf(fh.Filename), 0, err)
		}
		s.writeError(w, err)
		return
	}
	out := make([]UploadSummary, len(ups))
	for i, u := range ups {
		metrics.RecordUpload(formatOf(u.Name), u.Rows(), nil)
		out[i] = summarize(u)
	}
	writeJSON(w, http.StatusCreated, out)
}

func multipartSource(fh *multipart.FileHeader) workspace.Source {
	return workspace.Source{
		Name: filepath.Base(fh.Filename),
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func formatOf(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return "none"
	}
	return ext
}

func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	u, err := s.upload(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"upload":  summarize(u),
		"profile": profileOf(u.Table),
		"preview": u.Table.Head(previewRows),
	})
}

func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	u, err := s.upload(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.ws.Remove(u.ID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.upload(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileOf(u.Table))
}

// CleanRequest selects cleaning options; omitted options use the defaults.
type CleanRequest struct {
	Options []string `json:"options"`
}

// CleanResponse reports the processed upload and per-step row counts.
type CleanResponse struct {
	Upload  UploadSummary         `json:"upload"`
	Steps   []cleaning.StepResult `json:"steps"`
	Preview *table.Table          `json:"preview"`
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	u, err := s.upload(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req CleanRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			s.writeError(w, badRequest("invalid request body: %v", err))
			return
		}
	}
	opts := s.cfg.DefaultOptions
	if req.Options != nil {
		opts, err = cleaning.ParseOptions(req.Options)
		if err != nil {
			s.writeError(w, err)
			return
		}
	}
	if opts == nil {
		opts = cleaning.DefaultOptions()
	}
	processed, res, err := s.ws.Process(u.ID, s.pipeline, opts)
	metrics.RecordCleaning(res, err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CleanResponse{
		Upload:  summarize(processed),
		Steps:   res.Steps,
		Preview: processed.Table.Head(previewRows),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	u, err := s.upload(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	col := r.URL.Query().Get("column")
	if col == "" {
		all := analysis.SummarizeAll(u.Table)
		if all == nil {
			all = []analysis.SummaryStats{}
		}
		writeJSON(w, http.StatusOK, all)
		return
	}
	st, ok := analysis.Summarize(u.Table, col)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ChartResponse carries plot points and the selectable columns.
type ChartResponse struct {
	Points         []analysis.ChartPoint `json:"points"`
	Columns        []string              `json:"columns"`
	NumericColumns []string              `json:"numeric_columns"`
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	u, err := s.upload(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	q := r.URL.Query()
	x, y := q.Get("x"), q.Get("y")
	if x == "" || y == "" {
		s.writeError(w, badRequest("x and y are required"))
		return
	}
	limit := s.cfg.ChartMaxPoints
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, badRequest("invalid limit %q", v))
			return
		}
		if n < limit {
			limit = n
		}
	}
	cols := u.Table.Columns()
	if cols == nil {
		cols = []string{}
	}
	num := analysis.NumericColumns(u.Table)
	if num == nil {
		num = []string{}
	}
	writeJSON(w, http.StatusOK, ChartResponse{
		Points:         analysis.ChartPoints(u.Table, x, y, limit),
		Columns:        cols,
		NumericColumns: num,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	u, err := s.upload(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	q := r.URL.Query()
	format := export.CSV
	if v := q.Get("format"); v != "" {
		if format, err = export.ParseFormat(v); err != nil {
			s.writeError(w, err)
			return
		}
	}
	opt := s.cfg.Export
	for key, dst := range map[string]*bool{
		"metadata":   &opt.IncludeMetadata,
		"statistics": &opt.IncludeStatistics,
		"compress":   &opt.Compress,
	} {
		if v := q.Get(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				s.writeError(w, badRequest("invalid %s %q", key, v))
				return
			}
			*dst = b
		}
	}
	now := s.clock.Now()
	data, err := export.Serialize(export.Document{Name: u.Name, Table: u.Table, Processed: u.Processed, ExportedAt: now}, format, opt)
	metrics.RecordExport(string(format), err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	name := export.FileName(u.Name, format, opt.Compress, now)
	w.Header().Set("Content-Type", export.ContentType(format, opt.Compress))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
