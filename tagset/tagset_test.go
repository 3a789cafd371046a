package tagset

import (
	"reflect"
	"testing"
)

var (
	tagA = Tag{ID: "1", Name: "A"}
	tagB = Tag{ID: "2", Name: "B"}
	tagC = Tag{ID: "3", Name: "C"}
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		name    string
		current []Tag
		desired []string
		want    Diff
	}{
		{
			name:    "unchanged",
			current: []Tag{tagA, tagB},
			desired: []string{"A", "B"},
			want:    Diff{Keep: []Tag{tagA, tagB}, Create: []string{}, Removed: nil},
		},
		{
			name:    "full removal",
			current: []Tag{tagA, tagB},
			desired: nil,
			want:    Diff{Keep: []Tag{}, Create: []string{}, Removed: []Tag{tagA, tagB}},
		},
		{
			name:    "mixed",
			current: []Tag{tagA, tagB},
			desired: []string{"B", "C"},
			want:    Diff{Keep: []Tag{tagB}, Create: []string{"C"}, Removed: []Tag{tagA}},
		},
		{
			name:    "absent current",
			current: nil,
			desired: []string{"A", "B"},
			want:    Diff{Keep: []Tag{}, Create: []string{"A", "B"}, Removed: nil},
		},
		{
			name:    "nothing before nothing after",
			current: nil,
			desired: []string{},
			want:    Diff{Keep: []Tag{}, Create: []string{}, Removed: nil},
		},
		{
			name:    "duplicate labels collapse",
			current: []Tag{tagA},
			desired: []string{"C", "A", "C", "A"},
			want:    Diff{Keep: []Tag{tagA}, Create: []string{"C"}, Removed: nil},
		},
		{
			name:    "keep follows current order",
			current: []Tag{tagA, tagB, tagC},
			desired: []string{"C", "A"},
			want:    Diff{Keep: []Tag{tagA, tagC}, Create: []string{}, Removed: []Tag{tagB}},
		},
		{
			name:    "names match case-sensitively",
			current: []Tag{tagA},
			desired: []string{"a"},
			want:    Diff{Keep: []Tag{}, Create: []string{"a"}, Removed: []Tag{tagA}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.current, tt.desired)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Reconcile(%v, %v)\n got  %+v\n want %+v", tt.current, tt.desired, got, tt.want)
			}
		})
	}
}

func TestRemovedIsCopy(t *testing.T) {
	current := []Tag{tagA}
	d := Reconcile(current, nil)
	d.Removed[0].Name = "changed"
	if current[0].Name != "A" {
		t.Fatalf("Removed aliases the caller's slice")
	}
}

func TestReconcileWithCatalog(t *testing.T) {
	catalog := []Tag{tagC, tagB, tagA}
	d := ReconcileWithCatalog([]Tag{tagA}, catalog, []string{"A", "C", "new"})

	want := Diff{Keep: []Tag{tagC, tagA}, Create: []string{"new"}, Removed: nil}
	if !reflect.DeepEqual(d, want) {
		t.Fatalf("got %+v, want %+v", d, want)
	}
	if !d.NeedsCreate() {
		t.Fatalf("NeedsCreate = false")
	}

	// a current tag missing from a stale catalog is still kept
	d = ReconcileWithCatalog([]Tag{tagA, tagB}, []Tag{tagC}, []string{"B"})
	want = Diff{Keep: []Tag{tagB}, Create: []string{}, Removed: []Tag{tagA}}
	if !reflect.DeepEqual(d, want) {
		t.Fatalf("got %+v, want %+v", d, want)
	}
}

func TestOptionsRoundTrip(t *testing.T) {
	opts := Options([]Tag{tagA, tagB})
	if opts[0] != (TagOption{Label: "A", Value: "A"}) {
		t.Fatalf("OptionFor = %+v", opts[0])
	}
	if got := Labels(opts); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("Labels = %v", got)
	}
	d := Reconcile([]Tag{tagA, tagB}, Labels(opts))
	if d.NeedsCreate() || d.Removed != nil {
		t.Fatalf("round trip not idempotent: %+v", d)
	}
}
