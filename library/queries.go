package library

import (
	"context"
	"time"

	"github.com/unkn0wn-root/querycache"
	"github.com/unkn0wn-root/querycache/codec"
	"github.com/unkn0wn-root/querycache/tagset"
)

// QueriesOptions configure the cached reads.
type QueriesOptions struct {
	Codec     string // codec.ByName; "" => CBOR
	MaxDecode int    // bytes; 0 => unlimited
}

// Queries are the cached reads of the library domain. Every read goes through
// the shared querycache.Client, so the invalidations issued by the
// Orchestrator's mutations apply here.
type Queries struct {
	api   API
	cache *querycache.Client

	libraries *querycache.Query[[]Library]
	library   *querycache.Query[Library]
	series    *querycache.Query[Page[[]Series]]
	stats     *querycache.Query[LibrariesStats]
	tags      *querycache.Query[[]Tag]
	jobs      *querycache.Query[[]JobReport]
	logMeta   *querycache.Query[LogFileMeta]
}

func NewQueries(api API, cache *querycache.Client, opts QueriesOptions) (*Queries, error) {
	q := &Queries{api: api, cache: cache}
	var err error
	if q.libraries, err = newQuery[[]Library](cache, opts); err != nil {
		return nil, err
	}
	if q.library, err = newQuery[Library](cache, opts); err != nil {
		return nil, err
	}
	if q.series, err = newQuery[Page[[]Series]](cache, opts); err != nil {
		return nil, err
	}
	if q.stats, err = newQuery[LibrariesStats](cache, opts); err != nil {
		return nil, err
	}
	if q.tags, err = newQuery[[]Tag](cache, opts); err != nil {
		return nil, err
	}
	if q.jobs, err = newQuery[[]JobReport](cache, opts); err != nil {
		return nil, err
	}
	if q.logMeta, err = newQuery[LogFileMeta](cache, opts); err != nil {
		return nil, err
	}
	return q, nil
}

func newQuery[V any](cache *querycache.Client, opts QueriesOptions) (*querycache.Query[V], error) {
	cd, err := codec.ByName[V](opts.Codec, opts.MaxDecode)
	if err != nil {
		return nil, err
	}
	return querycache.NewQuery[V](cache, cd), nil
}

func (q *Queries) Cache() *querycache.Client { return q.cache }

// Libraries lists every library (unpaged).
func (q *Queries) Libraries(ctx context.Context) ([]Library, error) {
	return q.libraries.Get(ctx, LibrariesKey(), q.loadLibraries)
}

func (q *Queries) loadLibraries(ctx context.Context) ([]Library, error) {
	env, err := q.api.Libraries(ctx)
	p, err := unwrap(KeyLibraries, env, err, Success)
	return p.Data, err
}

func (q *Queries) Library(ctx context.Context, id string) (Library, error) {
	return q.library.Get(ctx, LibraryKey(id), q.libraryLoader(id))
}

// PrefetchLibrary warms a library's detail entry, e.g. on hover. A fetch is
// skipped while the stored entry is younger than staleTime.
func (q *Queries) PrefetchLibrary(ctx context.Context, id string, staleTime time.Duration) error {
	return q.library.Prefetch(ctx, LibraryKey(id), q.libraryLoader(id),
		querycache.PrefetchOptions{StaleTime: staleTime})
}

func (q *Queries) libraryLoader(id string) querycache.Loader[Library] {
	return func(ctx context.Context) (Library, error) {
		env, err := q.api.Library(ctx, id)
		return unwrap(KeyLibraryByID, env, err, Success)
	}
}

func (q *Queries) Series(ctx context.Context, id string, page int) (Page[[]Series], error) {
	return q.series.Get(ctx, SeriesKey(id, page), func(ctx context.Context) (Page[[]Series], error) {
		env, err := q.api.LibrarySeries(ctx, id, page)
		return unwrap(KeyLibrarySeries, env, err, Success)
	})
}

func (q *Queries) Stats(ctx context.Context) (LibrariesStats, error) {
	return q.stats.Get(ctx, LibrariesStatsKey(), func(ctx context.Context) (LibrariesStats, error) {
		env, err := q.api.LibrariesStats(ctx)
		return unwrap(KeyLibrariesStats, env, err, Success)
	})
}

// AllTags is the global tag catalog.
func (q *Queries) AllTags(ctx context.Context) ([]Tag, error) {
	return q.tags.Get(ctx, AllTagsKey(), func(ctx context.Context) ([]Tag, error) {
		env, err := q.api.AllTags(ctx)
		return unwrap(KeyAllTags, env, err, Success)
	})
}

// TagOptions is the catalog as select options.
func (q *Queries) TagOptions(ctx context.Context) ([]tagset.TagOption, error) {
	tags, err := q.AllTags(ctx)
	if err != nil {
		return nil, err
	}
	return tagset.Options(tags), nil
}

func (q *Queries) JobReports(ctx context.Context) ([]JobReport, error) {
	return q.jobs.Get(ctx, JobReportsKey(), func(ctx context.Context) ([]JobReport, error) {
		env, err := q.api.JobReports(ctx)
		return unwrap(KeyJobReports, env, err, Success)
	})
}

func (q *Queries) LogFileMeta(ctx context.Context) (LogFileMeta, error) {
	return q.logMeta.Get(ctx, LogFileMetaKey(), func(ctx context.Context) (LogFileMeta, error) {
		env, err := q.api.LogFileMeta(ctx)
		return unwrap(KeyLogFileMeta, env, err, Success)
	})
}
