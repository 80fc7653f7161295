package store

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/errors"
	"github.com/matzehuels/musclegraph/pkg/graph"
	"github.com/matzehuels/musclegraph/pkg/observability"
)

const jsonDoc = `{
  "exercises": [
    {"id": "pullup", "name": "Pull Up", "equipment": ["bar"]},
    {"id": "row", "name": "Row", "tags": "not json"}
  ],
  "nodes": [
    {"id": "back", "name": "Back", "kind": "region"},
    {"id": "lats", "name": "Lats", "kind": "muscle", "parentId": "back", "links": [{"exerciseId": "pullup"}]}
  ],
  "links": [
    {"nodeId": "back", "exerciseId": "row", "role": "secondary"}
  ]
}`

const yamlDoc = `
exercises:
  - id: pullup
    name: Pull Up
    equipment: [bar]
  - id: row
    name: Row
    tags: not json
nodes:
  - id: back
    name: Back
    kind: region
  - id: lats
    name: Lats
    kind: muscle
    parentId: back
    links:
      - exerciseId: pullup
links:
  - nodeId: back
    exerciseId: row
    role: secondary
`

const tomlDoc = `
[[exercises]]
id = "pullup"
name = "Pull Up"
equipment = ["bar"]

[[exercises]]
id = "row"
name = "Row"
tags = "not json"

[[nodes]]
id = "back"
name = "Back"
kind = "region"

[[nodes]]
id = "lats"
name = "Lats"
kind = "muscle"
parentId = "back"

  [[nodes.links]]
  exerciseId = "pullup"

[[links]]
nodeId = "back"
exerciseId = "row"
role = "secondary"
`

type malformedHooks struct {
	observability.NoopStoreHooks
	mu     sync.Mutex
	fields []string
	loads  int
}

func (h *malformedHooks) OnMalformed(_ context.Context, _, record, field string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fields = append(h.fields, record+"."+field)
}

func (h *malformedHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loads++
}

func installHooks(t *testing.T) *malformedHooks {
	t.Helper()
	h := &malformedHooks{}
	observability.SetStoreHooks(h)
	t.Cleanup(observability.Reset)
	return h
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// checkSample asserts the snapshot every sample document decodes to.
func checkSample(t *testing.T, c *catalog.Catalog) {
	t.Helper()
	if c.Len() != 2 || c.ExerciseCount() != 2 || c.LinkCount() != 2 {
		t.Fatalf("counts = %d nodes, %d exercises, %d links; want 2, 2, 2", c.Len(), c.ExerciseCount(), c.LinkCount())
	}
	lats, ok := c.Node("lats")
	if !ok || lats.ParentID != "back" || lats.Kind != catalog.KindMuscle {
		t.Fatalf("lats = %+v", lats)
	}
	back, _ := c.Node("back")
	if len(back.Links) != 1 || back.Links[0].Role != catalog.RoleSecondary {
		t.Errorf("back links = %+v, want one secondary", back.Links)
	}
	pullup, _ := c.Exercise("pullup")
	if !slices.Equal(pullup.Equipment, []string{"bar"}) {
		t.Errorf("pullup equipment = %v", pullup.Equipment)
	}
	row, _ := c.Exercise("row")
	if row.Tags != nil {
		t.Errorf("row tags = %v, want dropped", row.Tags)
	}
}

func TestFileStore(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", "catalog.json", jsonDoc},
		{"yaml", "catalog.yaml", yamlDoc},
		{"yml", "catalog.yml", yamlDoc},
		{"toml", "catalog.toml", tomlDoc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hooks := installHooks(t)
			s, err := Open(context.Background(), writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer s.Close()

			c, err := s.Snapshot(context.Background())
			if err != nil {
				t.Fatalf("Snapshot: %v", err)
			}
			checkSample(t, c)

			if !slices.Equal(hooks.fields, []string{"row.tags"}) {
				t.Errorf("malformed = %v, want [row.tags]", hooks.fields)
			}
			if hooks.loads != 1 {
				t.Errorf("loads = %d, want 1", hooks.loads)
			}
		})
	}
}

func TestFileStoreErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := NewFileStore("catalog.csv"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown extension: got %v, want INVALID_FORMAT", err)
	}
	if _, err := NewFileStore(""); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("empty path: got %v, want INVALID_PATH", err)
	}

	missing, err := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := missing.Snapshot(ctx); !errors.Is(err, errors.ErrCodeStoreUnavailable) {
		t.Errorf("missing file: got %v, want STORE_UNAVAILABLE", err)
	}

	malformed := map[string]string{
		"broken.json": "{",
		"link.json":   `{"nodes":[{"id":"a","name":"A","links":[{"exerciseId":"nope"}]}]}`,
		"kind.json":   `{"nodes":[{"id":"a","name":"A","kind":"exercise"}]}`,
	}
	for name, doc := range malformed {
		s, _ := NewFileStore(writeFile(t, name, doc))
		_, err := s.Snapshot(ctx)
		if !errors.Is(err, errors.ErrCodeStoreUnavailable) {
			t.Errorf("%s: got %v, want STORE_UNAVAILABLE", name, err)
			continue
		}
		if !strings.Contains(errors.UserMessage(err), "malformed") {
			t.Errorf("%s: message %q does not say malformed", name, errors.UserMessage(err))
		}
	}
}

func TestStrict(t *testing.T) {
	ctx := context.Background()
	doc := `{"nodes":[{"id":"a","name":"A","parentId":"b"},{"id":"b","name":"B","parentId":"a"}]}`
	path := writeFile(t, "cycle.json", doc)

	lenient, _ := NewFileStore(path)
	c, err := lenient.Snapshot(ctx)
	if err != nil {
		t.Fatalf("lenient load: %v", err)
	}
	if len(c.Problems()) != 1 {
		t.Errorf("problems = %v, want one cycle", c.Problems())
	}

	strict, _ := NewFileStore(path, WithStrict(true))
	if _, err := strict.Snapshot(ctx); !errors.IsIntegrity(err) {
		t.Errorf("strict load: got %v, want INTEGRITY_ERROR", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	s, _ := NewFileStore(writeFile(t, "catalog.json", jsonDoc))
	c, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for _, format := range []string{FormatJSON, FormatYAML} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, graph.FromCatalog(c), format); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			doc, err := Decode(buf.Bytes(), format)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			back, _, err := graph.ToCatalog(doc)
			if err != nil {
				t.Fatalf("ToCatalog: %v", err)
			}
			if back.Fingerprint() != c.Fingerprint() {
				t.Error("fingerprint changed across export")
			}
		})
	}

	if err := Encode(&bytes.Buffer{}, graph.Catalog{}, FormatTOML); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("toml export: got %v, want UNSUPPORTED", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	stmts := []string{
		Schema,
		`INSERT INTO exercises (id, name, equipment, tags) VALUES ('pullup', 'Pull Up', '["bar"]', NULL)`,
		`INSERT INTO exercises (id, name, equipment, tags) VALUES ('row', 'Row', NULL, 'not json')`,
		`INSERT INTO nodes (id, name, kind, parent_id) VALUES ('back', 'Back', 'region', NULL)`,
		`INSERT INTO nodes (id, name, kind, parent_id) VALUES ('lats', 'Lats', 'muscle', 'back')`,
		`INSERT INTO exercise_links (node_id, exercise_id, role) VALUES ('lats', 'pullup', 'primary')`,
		`INSERT INTO exercise_links (node_id, exercise_id, role) VALUES ('back', 'row', 'secondary')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	hooks := installHooks(t)
	s, err := Open(context.Background(), "sqlite://"+path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	c, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	checkSample(t, c)
	if !slices.Equal(hooks.fields, []string{"row.tags"}) {
		t.Errorf("malformed = %v, want [row.tags]", hooks.fields)
	}
}

func TestSQLiteMissingTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE unrelated (x INTEGER)`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	s, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	if _, err := s.Snapshot(context.Background()); !errors.Is(err, errors.ErrCodeStoreUnavailable) {
		t.Errorf("got %v, want STORE_UNAVAILABLE", err)
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MUSCLEGRAPH_TEST_MONGO_URL")
	if uri == "" {
		t.Skip("MUSCLEGRAPH_TEST_MONGO_URL not set")
	}
	s, err := Open(context.Background(), uri)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, err := s.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	snap, err := Open(context.Background(), uri+sep+MongoSnapshotParam+"=true")
	if err != nil {
		t.Fatalf("Open with %s: %v", MongoSnapshotParam, err)
	}
	defer snap.Close()
	if !snap.(*MongoStore).snapshot {
		t.Error("snapshot sessions not enabled from the URI")
	}
}

func TestMongoURIOptions(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		want     string
		snapshot bool
		wantErr  bool
	}{
		{name: "no query", uri: "mongodb://localhost/mg", want: "mongodb://localhost/mg"},
		{name: "driver options kept", uri: "mongodb://localhost/mg?replicaSet=rs0&w=majority", want: "mongodb://localhost/mg?replicaSet=rs0&w=majority"},
		{name: "snapshot only", uri: "mongodb://localhost/mg?snapshot=true", want: "mongodb://localhost/mg", snapshot: true},
		{name: "snapshot among others", uri: "mongodb+srv://cluster/mg?replicaSet=rs0&snapshot=1&retryWrites=true", want: "mongodb+srv://cluster/mg?replicaSet=rs0&retryWrites=true", snapshot: true},
		{name: "snapshot disabled", uri: "mongodb://localhost/mg?snapshot=false", want: "mongodb://localhost/mg"},
		{name: "not a boolean", uri: "mongodb://localhost/mg?snapshot=sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, opts, err := mongoURIOptions(tt.uri)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidInput) {
					t.Fatalf("error = %v, want INVALID_INPUT", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("uri = %q, want %q", got, tt.want)
			}
			s := &MongoStore{}
			for _, opt := range opts {
				opt(s)
			}
			if s.snapshot != tt.snapshot {
				t.Errorf("snapshot = %v, want %v", s.snapshot, tt.snapshot)
			}
		})
	}
}

func TestIsFile(t *testing.T) {
	tests := map[string]bool{
		"catalog.yaml":           true,
		"/data/catalog.json":     true,
		"sqlite://catalog.db":    false,
		"mongodb://localhost/mg": false,
		"mongodb+srv://cluster":  false,
	}
	for loc, want := range tests {
		if got := IsFile(loc); got != want {
			t.Errorf("IsFile(%q) = %v, want %v", loc, got, want)
		}
	}
}

func TestReloading(t *testing.T) {
	path := writeFile(t, "catalog.json", jsonDoc)
	fs, _ := NewFileStore(path)
	r := NewReloading(fs)
	ctx := context.Background()

	first, err := r.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"nodes":[{"id":"x","name":"X"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	held, _ := r.Snapshot(ctx)
	if held != first {
		t.Error("snapshot reloaded without invalidation")
	}

	r.Invalidate()
	fresh, err := r.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Len() != 1 {
		t.Errorf("after invalidate Len() = %d, want 1", fresh.Len())
	}
}

func TestWatch(t *testing.T) {
	path := writeFile(t, "catalog.json", jsonDoc)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 10*time.Millisecond, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}
