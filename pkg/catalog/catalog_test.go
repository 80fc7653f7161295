package catalog

import (
	"errors"
	"slices"
	"testing"

	mgerrors "github.com/matzehuels/musclegraph/pkg/errors"
)

func mustExercises(t *testing.T, c *Catalog, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := c.AddExercise(Exercise{ID: id, Name: id}); err != nil {
			t.Fatalf("AddExercise(%s): %v", id, err)
		}
	}
}

func mustNode(t *testing.T, c *Catalog, n Node) {
	t.Helper()
	if err := c.AddNode(n); err != nil {
		t.Fatalf("AddNode(%s): %v", n.ID, err)
	}
}

func ids(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestAddNodeErrors(t *testing.T) {
	c := New()
	mustExercises(t, c, "pullup")
	mustNode(t, c, Node{ID: "back", Name: "Back"})

	tests := []struct {
		name string
		node Node
		want error
	}{
		{"empty id", Node{Name: "x"}, ErrInvalidNodeID},
		{"duplicate", Node{ID: "back", Name: "Back again"}, ErrDuplicateNodeID},
		{"unknown kind", Node{ID: "lats", Kind: "exercise", ParentID: "back"}, ErrInvalidKind},
		{"unknown exercise link", Node{ID: "lats", ParentID: "back", Links: []ExerciseLink{
			{ExerciseID: "pullup", Role: RolePrimary},
			{ExerciseID: "nope", Role: RolePrimary},
		}}, ErrUnknownExercise},
		{"bad role", Node{ID: "lats", ParentID: "back", Links: []ExerciseLink{{ExerciseID: "pullup", Role: "tertiary"}}}, ErrInvalidRole},
		{"duplicate link", Node{ID: "lats", ParentID: "back", Links: []ExerciseLink{
			{ExerciseID: "pullup", Role: RolePrimary},
			{ExerciseID: "pullup", Role: RolePrimary},
		}}, ErrDuplicateLink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.AddNode(tt.node); !errors.Is(err, tt.want) {
				t.Errorf("AddNode() error = %v, want %v", err, tt.want)
			}
		})
	}

	// Rejected nodes leave no trace in the indexes.
	if _, ok := c.Node("lats"); ok {
		t.Error("rejected node was added")
	}
	if kids := c.Children("back"); len(kids) != 0 {
		t.Errorf("Children(back) = %v, want none", kids)
	}
	if c.Len() != 1 || c.LinkCount() != 0 {
		t.Errorf("Len = %d, LinkCount = %d, want 1, 0", c.Len(), c.LinkCount())
	}
}

func TestAddNodeSortsLinks(t *testing.T) {
	c := New()
	mustExercises(t, c, "row", "bench")
	mustNode(t, c, Node{ID: "chest", Name: "Chest", Links: []ExerciseLink{
		{ExerciseID: "row", Role: RoleSecondary},
		{ExerciseID: "row", Role: RolePrimary},
		{ExerciseID: "bench", Role: RolePrimary},
	}})

	n, _ := c.Node("chest")
	want := []ExerciseLink{
		{ExerciseID: "bench", Role: RolePrimary},
		{ExerciseID: "row", Role: RolePrimary},
		{ExerciseID: "row", Role: RoleSecondary},
	}
	if !slices.Equal(n.Links, want) {
		t.Errorf("links = %v, want %v", n.Links, want)
	}
}

func TestAddExerciseErrors(t *testing.T) {
	c := New()
	mustExercises(t, c, "pullup")

	if err := c.AddExercise(Exercise{}); !errors.Is(err, ErrInvalidExerciseID) {
		t.Errorf("empty id error = %v", err)
	}
	if err := c.AddExercise(Exercise{ID: "pullup"}); !errors.Is(err, ErrDuplicateExerciseID) {
		t.Errorf("duplicate error = %v", err)
	}
}

func TestLink(t *testing.T) {
	c := New()
	mustExercises(t, c, "row", "bench")
	if err := c.AddExercise(Exercise{ID: "curl", Name: "Arm Curl"}); err != nil {
		t.Fatal(err)
	}
	mustNode(t, c, Node{ID: "arm", Name: "Arm"})

	tests := []struct {
		name     string
		node     string
		exercise string
		role     Role
		want     error
	}{
		{"primary", "arm", "row", RolePrimary, nil},
		{"same exercise secondary", "arm", "row", RoleSecondary, nil},
		{"other primary", "arm", "curl", RolePrimary, nil},
		{"secondary bench", "arm", "bench", RoleSecondary, nil},
		{"duplicate role", "arm", "row", RolePrimary, ErrDuplicateLink},
		{"unknown node", "leg", "row", RolePrimary, ErrUnknownNode},
		{"unknown exercise", "arm", "squat", RolePrimary, ErrUnknownExercise},
		{"bad role", "arm", "bench", Role("tertiary"), ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Link(tt.node, tt.exercise, tt.role); !errors.Is(err, tt.want) {
				t.Errorf("Link() error = %v, want %v", err, tt.want)
			}
		})
	}

	arm, _ := c.Node("arm")
	want := []ExerciseLink{
		{ExerciseID: "curl", Role: RolePrimary}, // "Arm Curl" < "row"
		{ExerciseID: "row", Role: RolePrimary},
		{ExerciseID: "bench", Role: RoleSecondary},
		{ExerciseID: "row", Role: RoleSecondary},
	}
	if !slices.Equal(arm.Links, want) {
		t.Errorf("links = %v, want %v", arm.Links, want)
	}
	if arm.DirectCount() != 4 {
		t.Errorf("DirectCount() = %d, want 4", arm.DirectCount())
	}
	if got := len(arm.ExerciseIDs()); got != 3 {
		t.Errorf("ExerciseIDs() size = %d, want 3", got)
	}
	if c.LinkCount() != 4 {
		t.Errorf("LinkCount() = %d, want 4", c.LinkCount())
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"primary", RolePrimary, false},
		{" Secondary ", RoleSecondary, false},
		{"PRIMARY", RolePrimary, false},
		{"", "", true},
		{"main", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseRole(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestChildrenOrder(t *testing.T) {
	c := New()
	// Added out of order, children arrive before their parent.
	mustNode(t, c, Node{ID: "c3", Name: "beta", ParentID: "root"})
	mustNode(t, c, Node{ID: "c2", Name: "Beta", ParentID: "root"})
	mustNode(t, c, Node{ID: "c1", Name: "Alpha", ParentID: "root"})
	mustNode(t, c, Node{ID: "c0", Name: "Beta", ParentID: "root"})
	mustNode(t, c, Node{ID: "root", Name: "Root"})
	mustNode(t, c, Node{ID: "other", Name: "Other"})

	// Ordinal comparison: upper case sorts before lower case; equal names by ID.
	want := []string{"c1", "c0", "c2", "c3"}
	if got := ids(c.Children("root")); !slices.Equal(got, want) {
		t.Errorf("Children(root) = %v, want %v", got, want)
	}
	if got := ids(c.Roots()); !slices.Equal(got, []string{"other", "root"}) {
		t.Errorf("Roots() = %v", got)
	}
	if c.Children("c1") != nil {
		t.Error("leaf should have nil children")
	}
	if got := ids(c.Nodes()); !slices.Equal(got, []string{"c0", "c1", "c2", "c3", "other", "root"}) {
		t.Errorf("Nodes() = %v", got)
	}
}

func TestFilter(t *testing.T) {
	c := New()
	mustNode(t, c, Node{ID: "back", Name: "Back", Kind: KindRegion})
	mustNode(t, c, Node{ID: "lats", Name: "Lats", Kind: KindMuscle, ParentID: "back"})
	mustNode(t, c, Node{ID: "traps", Name: "Traps", Kind: KindMuscle, ParentID: "back"})

	got := c.Filter(func(n *Node) bool { return n.Kind == KindMuscle })
	if !slices.Equal(ids(got), []string{"lats", "traps"}) {
		t.Errorf("Filter() = %v", ids(got))
	}
}

func TestProblems(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		want  []Problem
	}{
		{
			name: "well formed",
			nodes: []Node{
				{ID: "back", Name: "Back"},
				{ID: "lats", Name: "Lats", ParentID: "back"},
			},
		},
		{
			name:  "self parent",
			nodes: []Node{{ID: "loop", Name: "Loop", ParentID: "loop"}},
			want:  []Problem{{Kind: ProblemCycle, NodeIDs: []string{"loop"}}},
		},
		{
			name: "two cycle",
			nodes: []Node{
				{ID: "a", Name: "A", ParentID: "b"},
				{ID: "b", Name: "B", ParentID: "a"},
				{ID: "root", Name: "Root"},
			},
			want: []Problem{{Kind: ProblemCycle, NodeIDs: []string{"a", "b"}}},
		},
		{
			name: "dangling parent",
			nodes: []Node{
				{ID: "orphan", Name: "Orphan", ParentID: "ghost"},
			},
			want: []Problem{{Kind: ProblemDanglingParent, NodeIDs: []string{"orphan"}, ParentID: "ghost"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			for _, n := range tt.nodes {
				mustNode(t, c, n)
			}
			got := c.Problems()
			if len(got) != len(tt.want) {
				t.Fatalf("Problems() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i].Kind != tt.want[i].Kind || got[i].ParentID != tt.want[i].ParentID ||
					!slices.Equal(got[i].NodeIDs, tt.want[i].NodeIDs) {
					t.Errorf("Problems()[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}

			err := c.Validate()
			if (err != nil) != (len(tt.want) > 0) {
				t.Fatalf("Validate() = %v", err)
			}
			if err != nil && !mgerrors.IsIntegrity(err) {
				t.Errorf("Validate() code = %v, want %v", mgerrors.GetCode(err), mgerrors.ErrCodeIntegrity)
			}
		})
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   []string
		wantOK bool
	}{
		{"empty", "", nil, true},
		{"null", "null", nil, true},
		{"empty array", "[]", nil, true},
		{"values", `["barbell", "bench"]`, []string{"barbell", "bench"}, true},
		{"blank entries dropped", `["barbell", " ", ""]`, []string{"barbell"}, true},
		{"comma in value", `["rings, gymnastic"]`, []string{"rings, gymnastic"}, true},
		{"malformed", `["barbell", bench]`, nil, false},
		{"object", `{"a": 1}`, nil, false},
		{"numbers", `[1, 2]`, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseList(tt.raw)
			if ok != tt.wantOK || !slices.Equal(got, tt.want) {
				t.Errorf("ParseList(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// array mimics decoder-specific slice types such as bson arrays.
type array []any

func TestNormalizeList(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   []string
		wantOK bool
	}{
		{"nil", nil, nil, true},
		{"strings", []string{"a", " b "}, []string{"a", "b"}, true},
		{"any strings", []any{"a", "b"}, []string{"a", "b"}, true},
		{"json string", `["a"]`, []string{"a"}, true},
		{"named slice", array{"a", ""}, []string{"a"}, true},
		{"mixed any", []any{"a", 3}, nil, false},
		{"number", 42, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeList(tt.in)
			if ok != tt.wantOK || !slices.Equal(got, tt.want) {
				t.Errorf("NormalizeList(%v) = %v, %v", tt.in, got, ok)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	build := func(order []Node) *Catalog {
		c := New()
		mustExercises(t, c, "pullup", "row")
		for _, n := range order {
			mustNode(t, c, n)
		}
		return c
	}

	back := Node{ID: "back", Name: "Back"}
	lats := Node{ID: "lats", Name: "Lats", ParentID: "back", Links: []ExerciseLink{
		{ExerciseID: "row", Role: RolePrimary},
		{ExerciseID: "pullup", Role: RolePrimary},
	}}

	a := build([]Node{back, lats})
	b := build([]Node{lats, back})
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprint depends on load order")
	}
	if len(a.Fingerprint()) != 64 {
		t.Errorf("fingerprint length = %d, want 64", len(a.Fingerprint()))
	}

	renamed := Node{ID: "lats", Name: "Latissimus", ParentID: "back", Links: lats.Links}
	c := build([]Node{back, renamed})
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("fingerprint ignores node names")
	}
}
