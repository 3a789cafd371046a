package library

import (
	"context"
	"fmt"
	"sync"
)

// fakeAPI is an in-memory server. Unset hooks answer 200 with the stored
// state; calls are counted per method.
type fakeAPI struct {
	mu        sync.Mutex
	calls     map[string]int
	libraries map[string]Library
	tags      []Tag
	nextTagID int

	createTags    func(names []string) (Envelope[[]Tag], error)
	updateLibrary func(args UpdateLibraryArgs) (Envelope[Library], error)

	lastUpdate *UpdateLibraryArgs
	lastCreate []string
}

func newFakeAPI(libs ...Library) *fakeAPI {
	f := &fakeAPI{calls: make(map[string]int), libraries: make(map[string]Library)}
	for _, l := range libs {
		f.libraries[l.ID] = l
	}
	return f
}

func (f *fakeAPI) count(m string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[m]
}

func (f *fakeAPI) hit(m string) {
	f.mu.Lock()
	f.calls[m]++
	f.mu.Unlock()
}

func (f *fakeAPI) Libraries(context.Context) (Envelope[Page[[]Library]], error) {
	f.hit("Libraries")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Library, 0, len(f.libraries))
	for _, l := range f.libraries {
		out = append(out, l)
	}
	return Envelope[Page[[]Library]]{Status: 200, Data: Page[[]Library]{Data: out}}, nil
}

func (f *fakeAPI) Library(_ context.Context, id string) (Envelope[Library], error) {
	f.hit("Library")
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.libraries[id]
	if !ok {
		return Envelope[Library]{Status: 404, Message: "library not found"}, nil
	}
	return Envelope[Library]{Status: 200, Data: l}, nil
}

func (f *fakeAPI) LibrarySeries(_ context.Context, id string, page int) (Envelope[Page[[]Series]], error) {
	f.hit("LibrarySeries")
	s := Series{ID: fmt.Sprintf("%s-%d", id, page), LibraryID: id, Status: FileReady}
	return Envelope[Page[[]Series]]{Status: 200, Data: Page[[]Series]{
		Data: []Series{s},
		Info: &PageInfo{CurrentPage: page, TotalPages: 3, PageSize: 1},
	}}, nil
}

func (f *fakeAPI) LibrariesStats(context.Context) (Envelope[LibrariesStats], error) {
	f.hit("LibrariesStats")
	return Envelope[LibrariesStats]{Status: 200, Data: LibrariesStats{BookCount: 12, SeriesCount: 3, TotalBytes: 1_500_000}}, nil
}

func (f *fakeAPI) ScanLibrary(context.Context, string) (Envelope[struct{}], error) {
	f.hit("ScanLibrary")
	return Envelope[struct{}]{Status: 200}, nil
}

func (f *fakeAPI) DeleteLibrary(_ context.Context, id string) (Envelope[struct{}], error) {
	f.hit("DeleteLibrary")
	f.mu.Lock()
	delete(f.libraries, id)
	f.mu.Unlock()
	return Envelope[struct{}]{Status: 200}, nil
}

func (f *fakeAPI) CreateLibrary(_ context.Context, args CreateLibraryArgs) (Envelope[Library], error) {
	f.hit("CreateLibrary")
	f.mu.Lock()
	defer f.mu.Unlock()
	l := Library{ID: fmt.Sprintf("lib-%d", len(f.libraries)+1), Name: args.Name, Path: args.Path}
	f.libraries[l.ID] = l
	return Envelope[Library]{Status: 200, Data: l}, nil
}

func (f *fakeAPI) UpdateLibrary(_ context.Context, args UpdateLibraryArgs) (Envelope[Library], error) {
	f.hit("UpdateLibrary")
	f.mu.Lock()
	a := args
	f.lastUpdate = &a
	hook := f.updateLibrary
	f.mu.Unlock()
	if hook != nil {
		return hook(args)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.libraries[args.ID] = args.Library
	return Envelope[Library]{Status: 200, Data: args.Library}, nil
}

func (f *fakeAPI) AllTags(context.Context) (Envelope[[]Tag], error) {
	f.hit("AllTags")
	f.mu.Lock()
	defer f.mu.Unlock()
	return Envelope[[]Tag]{Status: 200, Data: append([]Tag(nil), f.tags...)}, nil
}

func (f *fakeAPI) CreateTags(_ context.Context, names []string) (Envelope[[]Tag], error) {
	f.hit("CreateTags")
	f.mu.Lock()
	f.lastCreate = append([]string(nil), names...)
	hook := f.createTags
	f.mu.Unlock()
	if hook != nil {
		return hook(names)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Tag, 0, len(names))
	for _, n := range names {
		f.nextTagID++
		t := Tag{ID: fmt.Sprintf("t%d", f.nextTagID), Name: n}
		f.tags = append(f.tags, t)
		out = append(out, t)
	}
	return Envelope[[]Tag]{Status: 201, Data: out}, nil
}

func (f *fakeAPI) JobReports(context.Context) (Envelope[[]JobReport], error) {
	f.hit("JobReports")
	return Envelope[[]JobReport]{Status: 200, Data: []JobReport{{Kind: "LibraryScanJob", Status: JobCompleted}}}, nil
}

func (f *fakeAPI) LogFileMeta(context.Context) (Envelope[LogFileMeta], error) {
	f.hit("LogFileMeta")
	return Envelope[LogFileMeta]{Status: 200, Data: LogFileMeta{Path: "/var/log/stump.log", Size: 2048}}, nil
}

func (f *fakeAPI) ClearLogs(context.Context) (Envelope[struct{}], error) {
	f.hit("ClearLogs")
	return Envelope[struct{}]{Status: 200}, nil
}
