package web

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/verdata/tabular/internal/fileformat"
	"github.com/verdata/tabular/internal/formats"
	"github.com/verdata/tabular/internal/logging"
)

// handleHealth responds to liveness probes.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleListFormats returns the names of all available formats.
func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.Names()
	if err != nil {
		logging.FromContext(r.Context()).Error("listing formats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing formats failed")
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, map[string]any{"formats": names})
}

type columnSummary struct {
	Name     string `json:"name"`
	Label    string `json:"label,omitempty"`
	Datatype string `json:"datatype"`
	Required bool   `json:"required"`
	Unique   bool   `json:"unique,omitempty"`
}

type formatSummary struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Columns     []columnSummary `json:"columns"`
}

// handleGetFormat returns a summary of one format definition.
func (s *Server) handleGetFormat(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	format, err := s.lookupFormat(w, r, name)
	if err != nil {
		return
	}

	summary := formatSummary{
		Name:        format.Name,
		Description: format.Description,
		Columns:     make([]columnSummary, len(format.Columns)),
	}
	for i, c := range format.Columns {
		summary.Columns[i] = columnSummary{
			Name:     c.Name,
			Label:    c.Label,
			Datatype: string(c.Datatype),
			Required: c.Required,
			Unique:   c.Unique,
		}
	}
	writeJSON(w, summary)
}

// handleValidate runs one uploaded file through the named format and
// responds with the report. Data-level problems never fail the request;
// the report's status says ACCEPTED or REJECTED either way.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	name := chi.URLParam(r, "name")

	format, err := s.lookupFormat(w, r, name)
	if err != nil {
		return
	}

	body, filename, err := uploadBody(r, s.opts.MaxUploadSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer body.Close()

	if qname := r.URL.Query().Get("filename"); qname != "" {
		filename = qname
	}

	table, err := fileformat.ReadTable(body, format.Options.SkipRows)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable input: "+err.Error())
		return
	}

	report := format.Process(table).WithFilename(filename)
	reportID := uuid.New().String()

	logger.Info("validation finished",
		"format", format.Name,
		"report_id", reportID,
		"status", report.Status,
		"total_rows", report.TotalRows,
		"errors", len(report.Errors()),
	)

	s.ReportDone.Send(ReportEvent{
		ReportID: reportID,
		Format:   format.Name,
		Report:   report,
	})

	w.Header().Set("X-Report-ID", reportID)
	writeJSON(w, report)
}

// uploadBody extracts the file contents from the request: the "file"
// multipart field when present, the raw body otherwise.
func uploadBody(r *http.Request, maxSize int64) (io.ReadCloser, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxSize)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", errors.New("missing multipart field: file")
		}
		return file, header.Filename, nil
	}
	return r.Body, "", nil
}

func (s *Server) lookupFormat(w http.ResponseWriter, r *http.Request, name string) (*fileformat.FileFormat, error) {
	format, err := s.store.Get(name)
	if errors.Is(err, formats.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown format: "+name)
		return nil, err
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("loading format failed", "format", name, "error", err)
		writeError(w, http.StatusInternalServerError, "loading format failed")
		return nil, err
	}
	return format, nil
}

// handleListTables lists all tables and views in the public schema.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.schema.Tables(r.Context(), "public")
	if err != nil {
		logging.FromContext(r.Context()).Error("listing tables failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing tables failed")
		return
	}
	writeJSON(w, map[string]any{"tables": tables})
}

// handleTableColumns lists the columns of one table.
func (s *Server) handleTableColumns(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	columns, err := s.schema.Columns(r.Context(), name)
	if err != nil {
		logging.FromContext(r.Context()).Error("listing columns failed", "table", name, "error", err)
		writeError(w, http.StatusInternalServerError, "listing columns failed")
		return
	}
	if len(columns) == 0 {
		writeError(w, http.StatusNotFound, "unknown table: "+name)
		return
	}
	writeJSON(w, map[string]any{"table": name, "columns": columns})
}

// handleTableIndexes lists the index names of one table.
func (s *Server) handleTableIndexes(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	indexes, err := s.schema.Indexes(r.Context(), name)
	if err != nil {
		logging.FromContext(r.Context()).Error("listing indexes failed", "table", name, "error", err)
		writeError(w, http.StatusInternalServerError, "listing indexes failed")
		return
	}
	writeJSON(w, map[string]any{"table": name, "indexes": indexes})
}

// handleListEnums lists all enum types in the public schema.
func (s *Server) handleListEnums(w http.ResponseWriter, r *http.Request) {
	enums, err := s.schema.EnumTypes(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("listing enums failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing enums failed")
		return
	}
	writeJSON(w, map[string]any{"enums": enums})
}
