package library

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unkn0wn-root/querycache"
	"github.com/unkn0wn-root/querycache/codec"
)

func TestMissingLibraryIsNotCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OrchestratorOptions{})

	for i := 0; i < 2; i++ {
		_, err := f.q.Library(ctx, "missing")
		var se *StatusError
		if !errors.As(err, &se) || se.Status != 404 || se.Message != "library not found" {
			t.Fatalf("Library(missing) err = %v", err)
		}
	}
	if n := f.api.count("Library"); n != 2 {
		t.Fatalf("API calls = %d, want 2 (errors are never cached)", n)
	}
}

func TestSeriesPagesAreSeparateEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OrchestratorOptions{}, sampleLibrary())

	for _, page := range []int{0, 1, 0, 1} {
		p, err := f.q.Series(ctx, "1", page)
		if err != nil {
			t.Fatalf("Series: %v", err)
		}
		if p.Info == nil || p.Info.CurrentPage != page || p.Data[0].LibraryID != "1" {
			t.Fatalf("page %d = %+v", page, p)
		}
	}
	if n := f.api.count("LibrarySeries"); n != 2 {
		t.Fatalf("series loads = %d, want 2", n)
	}

	// every page of the library goes with one invalidation
	if err := f.q.Cache().Invalidate(ctx, querycache.K(KeyLibrarySeries, "1")); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	for _, page := range []int{0, 1} {
		if _, err := f.q.Series(ctx, "1", page); err != nil {
			t.Fatalf("Series: %v", err)
		}
	}
	if n := f.api.count("LibrarySeries"); n != 4 {
		t.Fatalf("series loads after invalidate = %d, want 4", n)
	}
}

func TestPrefetchLibrary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OrchestratorOptions{}, sampleLibrary())

	if err := f.q.PrefetchLibrary(ctx, "1", 10*time.Second); err != nil {
		t.Fatalf("PrefetchLibrary: %v", err)
	}
	if err := f.q.PrefetchLibrary(ctx, "1", 10*time.Second); err != nil {
		t.Fatalf("PrefetchLibrary: %v", err)
	}
	lib, err := f.q.Library(ctx, "1")
	if err != nil || lib.Name != "Comics" {
		t.Fatalf("Library: %v, %v", lib, err)
	}
	if n := f.api.count("Library"); n != 1 {
		t.Fatalf("library loads = %d, want 1", n)
	}
	if got := lib.TagList(); len(got) != 2 || got[0].Name != "A" {
		t.Fatalf("tags = %v", got)
	}
}

func TestStatsAndTagOptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OrchestratorOptions{})
	f.api.tags = []Tag{{ID: "1", Name: "Manga"}}

	st, err := f.q.Stats(ctx)
	if err != nil || st.BookCount != 12 || st.TotalBytes != 1_500_000 {
		t.Fatalf("Stats = %+v, %v", st, err)
	}
	opts, err := f.q.TagOptions(ctx)
	if err != nil || len(opts) != 1 || opts[0].Label != "Manga" || opts[0].Value != "Manga" {
		t.Fatalf("TagOptions = %v, %v", opts, err)
	}
}

func TestQueriesWithEveryCodec(t *testing.T) {
	for _, name := range []string{codec.NameJSON, codec.NameCBOR, codec.NameMsgpack} {
		cache, err := querycache.New(querycache.Options{Namespace: "codec-" + name})
		if err != nil {
			t.Fatalf("querycache.New: %v", err)
		}
		api := newFakeAPI(sampleLibrary())
		q, err := NewQueries(api, cache, QueriesOptions{Codec: name, MaxDecode: 1 << 20})
		if err != nil {
			t.Fatalf("%s: NewQueries: %v", name, err)
		}
		for i := 0; i < 2; i++ {
			lib, err := q.Library(context.Background(), "1")
			if err != nil || lib.LibraryOptions.LibraryPattern != SeriesBased || len(lib.TagList()) != 2 {
				t.Fatalf("%s: Library = %+v, %v", name, lib, err)
			}
		}
		if n := api.count("Library"); n != 1 {
			t.Fatalf("%s: loads = %d, want 1", name, n)
		}
		_ = cache.Close(context.Background())
	}

	if _, err := NewQueries(newFakeAPI(), nil, QueriesOptions{Codec: "xml"}); err == nil {
		t.Fatalf("unknown codec accepted")
	}
}
