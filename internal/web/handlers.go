package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/herdbook/internal/core"
	"github.com/JonMunkholm/herdbook/internal/logging"
)

var (
	errBadJSON     = errors.New("invalid mapping document")
	errRateLimited = errors.New("rate limit exceeded")
	errBadQuery    = errors.New("invalid query parameter")
)

const (
	// maxMappingBody bounds PUT /api/mappings bodies.
	maxMappingBody = 1 << 20
	maxAuditLimit  = 1000
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"pending": s.service.PendingCount(),
		"imports": s.service.LimiterStatus(),
	})
}

type fieldInfo struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Identity bool   `json:"identity,omitempty"`
}

type entityInfo struct {
	Type       core.EntityType        `json:"type"`
	Label      string                 `json:"label"`
	Fields     []fieldInfo            `json:"fields"`
	Layout     []string               `json:"layout"`
	Required   map[core.Mode][]string `json:"required"`
	MinColumns int                    `json:"minColumns"`
}

// handleListEntities describes every registered entity type so a client
// can build its mapping screen.
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	cfg := core.NewImportConfiguration()
	defs := s.service.Entities()
	out := make([]entityInfo, 0, len(defs))
	for _, def := range defs {
		info := entityInfo{
			Type:       def.Type,
			Label:      def.Label,
			Layout:     def.Layout,
			Required:   make(map[core.Mode][]string, 3),
			MinColumns: def.MinColumns,
		}
		for _, f := range def.Fields {
			info.Fields = append(info.Fields, fieldInfo{
				Name: f.Name, Label: f.Label, Type: f.Type.String(), Identity: f.Identity,
			})
		}
		for _, m := range []core.Mode{core.ModeCreate, core.ModeOverwrite, core.ModeReconcileUpdate} {
			info.Required[m] = def.RequiredFields(m, cfg)
		}
		out = append(out, info)
	}
	writeJSON(w, out)
}

// handleValidate runs a batch and answers with its preview. An aborted
// batch answers 422 with the structural error in the preview's fatal
// field; it is not kept for commit.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	req, err := parseImportRequest(w, r, s.cfg.Import.MaxFileSize)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	result, err := s.service.Validate(r.Context(), req.Source, req.Options...)
	switch {
	case result != nil && result.Fatal != nil:
		writeJSONStatus(w, http.StatusUnprocessableEntity, core.BuildPreview(result, s.cfg.Import.MaxReportedErrors))
		return
	case err != nil:
		respondError(w, r, err, 0)
		return
	}

	logging.WithFields(r.Context(), "import_id", result.ID, "entity", result.Entity).
		Info("import pending", "accepted", len(result.Accepted), "rejected", len(result.Errors))
	writeJSONStatus(w, http.StatusCreated, core.BuildPreview(result, s.cfg.Import.MaxReportedErrors))
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Get(chi.URLParam(r, "importID"))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, core.BuildPreview(result, s.cfg.Import.MaxReportedErrors))
}

// handleImportErrors lists every row error of a pending import, unbounded.
func (s *Server) handleImportErrors(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Get(chi.URLParam(r, "importID"))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	errs := result.Errors
	if errs == nil {
		errs = []core.RowError{}
	}
	writeJSON(w, errs)
}

func (s *Server) handleDiscardImport(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Discard(r.Context(), chi.URLParam(r, "importID")); err != nil {
		respondError(w, r, err, 0)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.service.Commit(r.Context(), chi.URLParam(r, "importID"))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, outcome)
}

type mappingResponse struct {
	Entity     core.EntityType         `json:"entityType"`
	Found      bool                    `json:"found"`
	Preference *core.MappingPreference `json:"preference,omitempty"`
}

func (s *Server) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	et, err := entityParam(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	p, ok, err := s.service.GetMapping(r.Context(), et)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	resp := mappingResponse{Entity: et, Found: ok}
	if ok {
		resp.Preference = &p
	}
	writeJSON(w, resp)
}

func (s *Server) handleSaveMapping(w http.ResponseWriter, r *http.Request) {
	et, err := entityParam(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	var p core.MappingPreference
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMappingBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", errBadJSON, err), http.StatusBadRequest)
		return
	}

	if err := s.service.SaveMapping(r.Context(), et, p); err != nil {
		respondError(w, r, err, 0)
		return
	}
	s.handleGetMapping(w, r)
}

// handleAuditLog lists recorded import events, newest first. Query
// parameters: entity, action, importId, since and until (RFC 3339), limit
// and offset.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	f, err := auditFilter(r.URL.Query())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	entries, err := s.service.AuditLog(r.Context(), f)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, entries)
}

func auditFilter(q url.Values) (core.AuditFilter, error) {
	f := core.AuditFilter{
		Action:   core.AuditAction(q.Get("action")),
		ImportID: q.Get("importId"),
	}
	et, err := core.ParseEntityType(q.Get("entity"))
	if err != nil {
		return f, err
	}
	f.Entity = et

	for name, dst := range map[string]*time.Time{"since": &f.StartTime, "until": &f.EndTime} {
		if v := q.Get(name); v != "" {
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return f, fmt.Errorf("%w: %s=%q", errBadQuery, name, v)
			}
			*dst = ts
		}
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return f, fmt.Errorf("%w: %s=%q", errBadQuery, name, v)
			}
			*dst = n
		}
	}
	if f.Limit > maxAuditLimit {
		f.Limit = maxAuditLimit
	}
	return f, nil
}

// entityParam resolves the {entity} path parameter; it must name a type.
func entityParam(r *http.Request) (core.EntityType, error) {
	raw := chi.URLParam(r, "entity")
	et, err := core.ParseEntityType(raw)
	if err != nil {
		return "", err
	}
	if et == "" {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownEntity, raw)
	}
	return et, nil
}
