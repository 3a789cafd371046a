// Package tagset computes how a library's tag associations change when the
// user edits its tag labels.
package tagset

// Tag is a server-side tag.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Diff is the outcome of a reconciliation.
//
// Keep and Create are never nil. Removed is nil when there is nothing to
// remove, which callers must distinguish from an explicit removal list.
type Diff struct {
	Keep    []Tag    `json:"keep"`
	Create  []string `json:"create"`
	Removed []Tag    `json:"removed"`
}

// NeedsCreate reports whether tags must be created before the update.
func (d Diff) NeedsCreate() bool { return len(d.Create) > 0 }

// Reconcile diffs the library's current tags (nil when absent) against the
// desired labels. Duplicate labels count once, first occurrence wins. Keep
// follows the order of current; Create follows the order of desired.
func Reconcile(current []Tag, desired []string) Diff {
	labels := dedupe(desired)
	want := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		want[l] = struct{}{}
	}

	keep := make([]Tag, 0, len(current))
	have := make(map[string]struct{}, len(current))
	for _, t := range current {
		have[t.Name] = struct{}{}
		if _, ok := want[t.Name]; ok {
			keep = append(keep, t)
		}
	}

	return Diff{
		Keep:    keep,
		Create:  missing(labels, have),
		Removed: removed(current, labels, want),
	}
}

// ReconcileWithCatalog is Reconcile for clients holding the global tag
// catalog: a desired label naming a catalog tag reuses it instead of
// creating a duplicate. Keep follows catalog order, followed by current tags
// the catalog does not list. Removed is computed against current only.
func ReconcileWithCatalog(current, catalog []Tag, desired []string) Diff {
	labels := dedupe(desired)
	want := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		want[l] = struct{}{}
	}

	keep := make([]Tag, 0, len(labels))
	have := make(map[string]struct{}, len(catalog)+len(current))
	for _, src := range [][]Tag{catalog, current} {
		for _, t := range src {
			if _, dup := have[t.Name]; dup {
				continue
			}
			have[t.Name] = struct{}{}
			if _, ok := want[t.Name]; ok {
				keep = append(keep, t)
			}
		}
	}

	return Diff{
		Keep:    keep,
		Create:  missing(labels, have),
		Removed: removed(current, labels, want),
	}
}

func removed(current []Tag, labels []string, want map[string]struct{}) []Tag {
	var out []Tag
	switch {
	case len(labels) == 0:
		// every prior association is dropped
		out = append(out, current...)
	case len(current) == 0:
		return nil
	default:
		for _, t := range current {
			if _, ok := want[t.Name]; !ok {
				out = append(out, t)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func missing(labels []string, have map[string]struct{}) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := have[l]; !ok {
			out = append(out, l)
		}
	}
	return out
}

func dedupe(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
