package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/musclegraph/pkg/cache"
	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/catalog/catalogtest"
	"github.com/matzehuels/musclegraph/pkg/errors"
	"github.com/matzehuels/musclegraph/pkg/graph"
	"github.com/matzehuels/musclegraph/pkg/observability"
	"github.com/matzehuels/musclegraph/pkg/pipeline"
	"github.com/matzehuels/musclegraph/pkg/store"
)

type staticStore struct{ c *catalog.Catalog }

func (s staticStore) Snapshot(context.Context) (*catalog.Catalog, error) { return s.c, nil }
func (s staticStore) Close() error                                      { return nil }

func newServer(t *testing.T, c *catalog.Catalog) *httptest.Server {
	t.Helper()
	runner := pipeline.NewRunner(staticStore{c: c}, cache.NewMemoryCache(), nil, nil)
	srv := httptest.NewServer(New(runner, nil).Handler())
	t.Cleanup(func() {
		srv.Close()
		runner.Close()
	})
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("GET %s: decode: %v", path, err)
		}
	}
	return resp
}

func TestHealthAndVersion(t *testing.T) {
	srv := newServer(t, catalogtest.Scenario(t))

	var health map[string]string
	if resp := get(t, srv, "/healthz", &health); resp.StatusCode != http.StatusOK || health["status"] != "ok" {
		t.Errorf("healthz = %d %v", resp.StatusCode, health)
	}

	var version map[string]string
	if resp := get(t, srv, "/v1/version", &version); resp.StatusCode != http.StatusOK || version["version"] == "" {
		t.Errorf("version = %d %v", resp.StatusCode, version)
	}
}

func TestForest(t *testing.T) {
	srv := newServer(t, catalogtest.Scenario(t))

	var f graph.Forest
	resp := get(t, srv, "/v1/forest", &f)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(f.Roots) != 3 || f.Fingerprint == "" {
		t.Errorf("forest = %d roots, fingerprint %q", len(f.Roots), f.Fingerprint)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestNodeRoutes(t *testing.T) {
	srv := newServer(t, catalogtest.Scenario(t))

	var anc AncestryResponse
	get(t, srv, "/v1/nodes/LowerLats/ancestry", &anc)
	if len(anc.Ancestry) != 3 || anc.Ancestry[0].ID != "Back" {
		t.Errorf("ancestry = %+v", anc)
	}

	var ex struct {
		NodeID    string `json:"nodeId"`
		Exercises []struct {
			ExerciseID string `json:"exerciseId"`
		} `json:"exercises"`
	}
	get(t, srv, "/v1/nodes/Traps/exercises", &ex)
	if ex.NodeID != "Traps" || len(ex.Exercises) != 2 {
		t.Errorf("exercises = %+v", ex)
	}

	var conns NodeConnectionsResponse
	get(t, srv, "/v1/nodes/Pecs/connections?strategy=pairwise", &conns)
	var ids []string
	for _, c := range conns.Connections {
		ids = append(ids, c.ToNodeID)
	}
	if strings.Join(ids, ",") != "FrontDelt,LowerLats,Traps" || conns.Strategy != "pairwise" {
		t.Errorf("connections = %v (%s)", ids, conns.Strategy)
	}
}

func TestErrorMapping(t *testing.T) {
	cyclic := catalog.New()
	_ = cyclic.AddNode(catalog.Node{ID: "a", Name: "A", ParentID: "b"})
	_ = cyclic.AddNode(catalog.Node{ID: "b", Name: "B", ParentID: "a"})

	tests := []struct {
		name   string
		c      *catalog.Catalog
		path   string
		status int
		code   string
	}{
		{"unknown node", catalogtest.Scenario(t), "/v1/nodes/Nope/ancestry", http.StatusNotFound, "NOT_FOUND"},
		{"unknown node exercises", catalogtest.Scenario(t), "/v1/nodes/Nope/exercises", http.StatusNotFound, "NOT_FOUND"},
		{"bad strategy", catalogtest.Scenario(t), "/v1/connections?strategy=fastest", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad bool", catalogtest.Scenario(t), "/v1/layout?exercises=maybe", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad format", catalogtest.Scenario(t), "/v1/layout?format=gif", http.StatusBadRequest, "INVALID_INPUT"},
		{"cycle forest", cyclic, "/v1/forest", http.StatusInternalServerError, "INTEGRITY_ERROR"},
		{"cycle ancestry", cyclic, "/v1/nodes/a/ancestry", http.StatusInternalServerError, "INTEGRITY_ERROR"},
		{"no route", catalogtest.Scenario(t), "/v2/forest", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.c)
			var body errorBody
			resp := get(t, srv, tt.path, &body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if string(body.Error.Code) != tt.code {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.code)
			}
		})
	}
}

func TestLayoutRoute(t *testing.T) {
	srv := newServer(t, catalogtest.Scenario(t))

	var l graph.Layout
	get(t, srv, "/v1/layout?nodes=Lats,LowerLats&exercises=true", &l)
	// Lats, LowerLats and the PullUp fan-out leaf.
	if len(l.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(l.Nodes))
	}

	resp, err := http.Get(srv.URL + "/v1/layout?format=dot&connections=true")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	dot, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), "style=dashed") {
		t.Errorf("DOT has no connection edges:\n%s", dot)
	}
}

func TestRequestID(t *testing.T) {
	srv := newServer(t, catalogtest.Scenario(t))

	resp := get(t, srv, "/healthz", nil)
	if len(resp.Header.Get(RequestIDHeader)) != 36 {
		t.Errorf("generated request id = %q, want a UUID", resp.Header.Get(RequestIDHeader))
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "trace-123" {
		t.Errorf("request id = %q, want trace-123", got)
	}
}

func TestNoRoute(t *testing.T) {
	srv := newServer(t, catalogtest.Scenario(t))

	var body errorBody
	resp := get(t, srv, "/v1/muscles", &body)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if body.Error.Code != errors.ErrCodeNotFound {
		t.Errorf("code = %q, want NOT_FOUND", body.Error.Code)
	}
	if body.Error.RequestID == "" || body.Error.RequestID != resp.Header.Get(RequestIDHeader) {
		t.Errorf("requestId = %q, header %q", body.Error.RequestID, resp.Header.Get(RequestIDHeader))
	}
}

func TestMalformedCatalogIsServerSide(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(`{"nodes": [`), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := store.NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(s, cache.NewMemoryCache(), nil, nil)
	srv := httptest.NewServer(New(runner, nil).Handler())
	t.Cleanup(func() {
		srv.Close()
		runner.Close()
	})

	var body errorBody
	resp := get(t, srv, "/v1/forest", &body)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
	if body.Error.Code != errors.ErrCodeStoreUnavailable {
		t.Errorf("code = %q, want STORE_UNAVAILABLE", body.Error.Code)
	}
}

type routeHooks struct {
	observability.NoopAPIHooks
	mu       sync.Mutex
	routes   []string
	statuses []int
}

func (h *routeHooks) OnResponse(_ context.Context, _, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, route)
	h.statuses = append(h.statuses, status)
}

func TestAPIHooks(t *testing.T) {
	hooks := &routeHooks{}
	observability.SetAPIHooks(hooks)
	t.Cleanup(observability.Reset)

	srv := newServer(t, catalogtest.Scenario(t))
	get(t, srv, "/v1/nodes/Pecs/exercises", nil)
	get(t, srv, "/v1/nodes/Nope/exercises", nil)

	// Hooks fire after the response is flushed; wait for the second one.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hooks.mu.Lock()
		n := len(hooks.routes)
		hooks.mu.Unlock()
		if n >= 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.routes) != 2 || hooks.routes[0] != "/v1/nodes/{id}/exercises" {
		t.Errorf("routes = %v", hooks.routes)
	}
	if len(hooks.statuses) == 2 && (hooks.statuses[0] != 200 || hooks.statuses[1] != 404) {
		t.Errorf("statuses = %v, want [200 404]", hooks.statuses)
	}
}

func TestStatusFor(t *testing.T) {
	if StatusFor("SOMETHING_ELSE") != http.StatusInternalServerError {
		t.Error("unknown codes should map to 500")
	}
	if StatusFor("STORE_UNAVAILABLE") != http.StatusServiceUnavailable {
		t.Error("store unavailable should map to 503")
	}
}
