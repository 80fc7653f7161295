package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/musclegraph/pkg/aggregate"
	"github.com/matzehuels/musclegraph/pkg/buildinfo"
	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/connect"
	"github.com/matzehuels/musclegraph/pkg/errors"
	"github.com/matzehuels/musclegraph/pkg/pipeline"
)

// AncestryResponse is the body of GET /v1/nodes/{id}/ancestry.
type AncestryResponse struct {
	NodeID   string          `json:"nodeId"`
	Ancestry []*catalog.Node `json:"ancestry"`
}

// ExercisesResponse is the body of GET /v1/nodes/{id}/exercises.
type ExercisesResponse struct {
	NodeID string `json:"nodeId"`
	*aggregate.Result
}

// NodeConnectionsResponse is the body of GET /v1/nodes/{id}/connections.
type NodeConnectionsResponse struct {
	NodeID      string               `json:"nodeId"`
	Strategy    string               `json:"strategy"`
	Connections []connect.Connection `json:"connections"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) noRoute(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, errors.NotFound("no route for %s", r.URL.Path))
}

func (s *Server) forest(w http.ResponseWriter, r *http.Request) {
	opts, err := parseOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f, _, err := s.runner.ForestWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) ancestry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	chain, err := s.runner.Ancestry(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AncestryResponse{NodeID: id, Ancestry: chain})
}

func (s *Server) exercises(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	opts, err := parseOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Exercises(r.Context(), id, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ExercisesResponse{NodeID: id, Result: res})
}

func (s *Server) nodeConnections(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	opts, err := parseOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	conns, err := s.runner.ConnectionsFor(r.Context(), id, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NodeConnectionsResponse{NodeID: id, Strategy: opts.Strategy, Connections: conns})
}

func (s *Server) connections(w http.ResponseWriter, r *http.Request) {
	opts, err := parseOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	conns, _, err := s.runner.ConnectionsWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conns)
}

func (s *Server) layout(w http.ResponseWriter, r *http.Request) {
	opts, err := parseOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Format == "" {
		opts.Format = pipeline.FormatJSON
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err)
		return
	}

	l, _, err := s.runner.LayoutWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Format == pipeline.FormatJSON {
		writeJSON(w, http.StatusOK, l)
		return
	}

	data, _, err := s.runner.RenderWithCacheInfo(r.Context(), l, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[opts.Format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

var contentTypes = map[string]string{
	pipeline.FormatSVG: "image/svg+xml",
	pipeline.FormatPNG: "image/png",
	pipeline.FormatPDF: "application/pdf",
	pipeline.FormatDOT: "text/vnd.graphviz; charset=utf-8",
}

// =============================================================================
// Request parsing
// =============================================================================

// parseOptions reads pipeline options from the query string and validates
// the layout-stage fields.
func parseOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Strategy: q.Get("strategy"),
		Format:   q.Get("format"),
	}

	if nodes := q.Get("nodes"); nodes != "" {
		for _, id := range strings.Split(nodes, ",") {
			if id = strings.TrimSpace(id); id != "" {
				opts.NodeIDs = append(opts.NodeIDs, id)
			}
		}
	}

	var err error
	if opts.IncludeExercises, err = parseBool(q.Get("exercises"), "exercises"); err != nil {
		return opts, err
	}
	if opts.Connections, err = parseBool(q.Get("connections"), "connections"); err != nil {
		return opts, err
	}
	if opts.Detailed, err = parseBool(q.Get("detailed"), "detailed"); err != nil {
		return opts, err
	}
	if opts.Refresh, err = parseBool(q.Get("refresh"), "refresh"); err != nil {
		return opts, err
	}
	if opts.LevelWidth, err = parseFloat(q.Get("level_width"), "level_width"); err != nil {
		return opts, err
	}
	if opts.NodeHeight, err = parseFloat(q.Get("node_height"), "node_height"); err != nil {
		return opts, err
	}
	if opts.Scale, err = parseFloat(q.Get("scale"), "scale"); err != nil {
		return opts, err
	}

	return opts, opts.ValidateForLayout()
}

func parseBool(v, name string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "%s must be a boolean, got %q", name, v)
	}
	return b, nil
}

func parseFloat(v, name string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a number, got %q", name, v)
	}
	return f, nil
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := StatusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request error", "code", code, "err", err, "request_id", RequestID(r.Context()))
	}
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:      code,
		Message:   errors.UserMessage(err),
		RequestID: RequestID(r.Context()),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
