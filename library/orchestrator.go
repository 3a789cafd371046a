package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/unkn0wn-root/querycache"
	"github.com/unkn0wn-root/querycache/mutation"
	"github.com/unkn0wn-root/querycache/tagset"
)

// ErrNotAuthorized is the panic value of a save attempted without
// permission. Callers gate the action before it can be reached.
var ErrNotAuthorized = errors.New("library: not authorized to update libraries")

// Stage names the step of a save that failed.
type Stage string

const (
	StageCreateTags    Stage = "create_tags"
	StageUpdateLibrary Stage = "update_library"
)

// SaveError reports a failed save. When Stage is StageUpdateLibrary the tags
// in CreatedTags already exist on the server; they are not rolled back.
type SaveError struct {
	LibraryID   string
	Stage       Stage
	CreatedTags []Tag
	Err         error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save library %s: %s: %v", e.LibraryID, e.Stage, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Edit is one logical save: the loaded library plus the edited values.
type Edit struct {
	Library     Library
	Name        string
	Path        string
	Description *string
	Options     *LibraryOptions // nil keeps Library.LibraryOptions
	ScanMode    *ScanMode
	Tags        []string // desired labels
	Authorized  bool
}

type OrchestratorOptions struct {
	// AcceptStatus is the status range a tag creation must answer with.
	// Zero => CreatedOK (200..201).
	AcceptStatus StatusRange
	// UseTagCatalog reuses tags from the global catalog instead of creating
	// labels that already exist elsewhere. The catalog is read through Queries
	// when set, else straight from the API.
	UseTagCatalog bool
	Queries       *Queries
	Logger        querycache.Logger
}

// Orchestrator sequences tag creation and library update as one save, and
// owns the other library writes with their cache invalidations.
type Orchestrator struct {
	api    API
	opts   OrchestratorOptions
	log    querycache.Logger
	accept StatusRange

	createTags    *mutation.Mutation[[]string, []Tag]
	updateLibrary *mutation.Mutation[UpdateLibraryArgs, Library]
	scan          *mutation.Mutation[string, struct{}]
	remove        *mutation.Mutation[string, struct{}]
	create        *mutation.Mutation[CreateLibraryArgs, Library]
	clearLogs     *mutation.Mutation[struct{}, struct{}]
}

func NewOrchestrator(api API, cache *querycache.Client, opts OrchestratorOptions) *Orchestrator {
	o := &Orchestrator{api: api, opts: opts, log: opts.Logger, accept: opts.AcceptStatus}
	if o.log == nil {
		o.log = querycache.NopLogger{}
	}
	if o.accept.IsZero() {
		o.accept = CreatedOK
	}

	o.createTags = mutation.New[[]string, []Tag]("createTags",
		func(ctx context.Context, names []string) ([]Tag, error) {
			env, err := api.CreateTags(ctx, names)
			return unwrap("createTags", env, err, o.accept)
		},
		mutation.Options[[]string, []Tag]{
			Cache:              cache,
			InvalidatePrefixes: []string{KeyAllTags},
			OnError:            reportError[[]string](o.log, "createTags"),
			Logger:             o.log,
		})

	o.updateLibrary = mutation.New[UpdateLibraryArgs, Library]("updateLibrary",
		func(ctx context.Context, args UpdateLibraryArgs) (Library, error) {
			env, err := api.UpdateLibrary(ctx, args)
			return unwrap("updateLibrary", env, err, Success)
		},
		mutation.Options[UpdateLibraryArgs, Library]{
			Cache: cache,
			// edits can start scan jobs, so job reports go too
			Invalidates: func(args UpdateLibraryArgs, _ Library) []querycache.Key {
				return []querycache.Key{LibrariesKey(), LibraryKey(args.ID), JobReportsKey()}
			},
			OnError: reportError[UpdateLibraryArgs](o.log, "updateLibrary"),
			Logger:  o.log,
		})

	o.scan = mutation.New[string, struct{}]("scanLibrary",
		func(ctx context.Context, id string) (struct{}, error) {
			env, err := api.ScanLibrary(ctx, id)
			return unwrap("scanLibrary", env, err, Success)
		},
		mutation.Options[string, struct{}]{
			Cache:              cache,
			InvalidatePrefixes: []string{KeyJobReports},
			OnError:            reportError[string](o.log, "scanLibrary"),
			Logger:             o.log,
		})

	o.remove = mutation.New[string, struct{}]("deleteLibrary",
		func(ctx context.Context, id string) (struct{}, error) {
			env, err := api.DeleteLibrary(ctx, id)
			return unwrap("deleteLibrary", env, err, Success)
		},
		mutation.Options[string, struct{}]{
			Cache: cache,
			Invalidates: func(id string, _ struct{}) []querycache.Key {
				return []querycache.Key{LibrariesKey(), LibraryKey(id)}
			},
			OnError: reportError[string](o.log, "deleteLibrary"),
			Logger:  o.log,
		})

	o.create = mutation.New[CreateLibraryArgs, Library]("createLibrary",
		func(ctx context.Context, args CreateLibraryArgs) (Library, error) {
			env, err := api.CreateLibrary(ctx, args)
			return unwrap("createLibrary", env, err, Success)
		},
		mutation.Options[CreateLibraryArgs, Library]{
			Cache:              cache,
			InvalidatePrefixes: []string{KeyLibraries},
			OnError:            reportError[CreateLibraryArgs](o.log, "createLibrary"),
			Logger:             o.log,
		})

	o.clearLogs = mutation.New[struct{}, struct{}]("clearLogs",
		func(ctx context.Context, _ struct{}) (struct{}, error) {
			env, err := api.ClearLogs(ctx)
			return unwrap("clearLogs", env, err, Success)
		},
		mutation.Options[struct{}, struct{}]{
			Cache:              cache,
			InvalidatePrefixes: []string{KeyLogFileMeta},
			OnError:            reportError[struct{}](o.log, "clearLogs"),
			Logger:             o.log,
		})

	return o
}

func reportError[In any](log querycache.Logger, op string) func(context.Context, In, error) {
	return func(_ context.Context, _ In, err error) {
		log.Warn("mutation failed", querycache.Fields{"op": op, "err": err})
	}
}

// InFlight reports whether a save is between its first and last step.
func (o *Orchestrator) InFlight() bool {
	return o.createTags.InFlight() || o.updateLibrary.InFlight()
}

// Save creates the missing tags, then updates the library. The update is
// only sent after tag creation fully succeeded; on any failure the returned
// error is a *SaveError and no cache entry is invalidated by the failing step.
//
// Save panics with ErrNotAuthorized when e.Authorized is false.
func (o *Orchestrator) Save(ctx context.Context, e Edit) (Library, error) {
	if !e.Authorized {
		panic(ErrNotAuthorized)
	}
	id := e.Library.ID
	diff := o.reconcile(ctx, e)

	var created []Tag
	if diff.NeedsCreate() {
		var err error
		created, err = o.createTags.RunAndWait(ctx, diff.Create)
		if err != nil {
			o.log.Warn("save aborted before update", querycache.Fields{"library": id, "err": err})
			return Library{}, &SaveError{LibraryID: id, Stage: StageCreateTags, Err: err}
		}
	}

	final := make([]Tag, 0, len(diff.Keep)+len(created))
	final = append(final, diff.Keep...)
	final = append(final, created...)

	lib := e.Library
	lib.Name = e.Name
	lib.Path = e.Path
	lib.Description = e.Description
	lib.Tags = &final
	if e.Options != nil {
		opts := *e.Options
		opts.ID = e.Library.LibraryOptions.ID
		lib.LibraryOptions = opts
	}

	out, err := o.updateLibrary.RunAndWait(ctx, UpdateLibraryArgs{
		Library:     lib,
		RemovedTags: diff.Removed,
		ScanMode:    e.ScanMode,
	})
	if err != nil {
		return Library{}, &SaveError{LibraryID: id, Stage: StageUpdateLibrary, CreatedTags: created, Err: err}
	}
	o.log.Info("library saved", querycache.Fields{
		"library": id,
		"created": len(created),
		"removed": len(diff.Removed),
	})
	return out, nil
}

func (o *Orchestrator) reconcile(ctx context.Context, e Edit) tagset.Diff {
	current := e.Library.TagList()
	if !o.opts.UseTagCatalog {
		return tagset.Reconcile(current, e.Tags)
	}
	catalog, err := o.catalog(ctx)
	if err != nil {
		// creating a label twice is recoverable; failing the save is not needed
		o.log.Warn("tag catalog unavailable; reconciling against library tags", querycache.Fields{"err": err})
		return tagset.Reconcile(current, e.Tags)
	}
	return tagset.ReconcileWithCatalog(current, catalog, e.Tags)
}

func (o *Orchestrator) catalog(ctx context.Context) ([]Tag, error) {
	if o.opts.Queries != nil {
		return o.opts.Queries.AllTags(ctx)
	}
	env, err := o.api.AllTags(ctx)
	return unwrap(KeyAllTags, env, err, Success)
}

// Scan starts a library scan and refreshes job reports once it is accepted.
func (o *Orchestrator) Scan(ctx context.Context, id string) error {
	_, err := o.scan.RunAndWait(ctx, id)
	return err
}

func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	_, err := o.remove.RunAndWait(ctx, id)
	return err
}

func (o *Orchestrator) Create(ctx context.Context, args CreateLibraryArgs) (Library, error) {
	return o.create.RunAndWait(ctx, args)
}

func (o *Orchestrator) ClearLogs(ctx context.Context) error {
	_, err := o.clearLogs.RunAndWait(ctx, struct{}{})
	return err
}

// CreateTags creates tags outside a save, e.g. from the tag manager.
func (o *Orchestrator) CreateTags(ctx context.Context, names []string) ([]Tag, error) {
	return o.createTags.RunAndWait(ctx, names)
}
