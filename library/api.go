package library

import (
	"context"
	"errors"
	"fmt"
)

// API is the server contract. Implementations return a non-nil error only
// when no response was obtained (transport or decoding failure); any status
// the server answered with is reported in the Envelope.
type API interface {
	Libraries(ctx context.Context) (Envelope[Page[[]Library]], error)
	Library(ctx context.Context, id string) (Envelope[Library], error)
	LibrarySeries(ctx context.Context, id string, page int) (Envelope[Page[[]Series]], error)
	LibrariesStats(ctx context.Context) (Envelope[LibrariesStats], error)
	ScanLibrary(ctx context.Context, id string) (Envelope[struct{}], error)
	DeleteLibrary(ctx context.Context, id string) (Envelope[struct{}], error)
	CreateLibrary(ctx context.Context, args CreateLibraryArgs) (Envelope[Library], error)
	UpdateLibrary(ctx context.Context, args UpdateLibraryArgs) (Envelope[Library], error)

	AllTags(ctx context.Context) (Envelope[[]Tag], error)
	CreateTags(ctx context.Context, names []string) (Envelope[[]Tag], error)

	JobReports(ctx context.Context) (Envelope[[]JobReport], error)
	LogFileMeta(ctx context.Context) (Envelope[LogFileMeta], error)
	ClearLogs(ctx context.Context) (Envelope[struct{}], error)
}

// Envelope is a server response: HTTP status plus decoded body. Message
// carries the server's error details when the status is an error.
type Envelope[T any] struct {
	Status  int
	Data    T
	Message string
}

// StatusRange is an inclusive range of accepted HTTP statuses.
type StatusRange struct{ Min, Max int }

var (
	// Success accepts any 2xx.
	Success = StatusRange{Min: 200, Max: 299}
	// CreatedOK is the default for tag creation: some failures come back
	// as other 2xx statuses carrying an error body.
	CreatedOK = StatusRange{Min: 200, Max: 201}
)

func (r StatusRange) Contains(status int) bool { return status >= r.Min && status <= r.Max }

func (r StatusRange) IsZero() bool { return r == StatusRange{} }

func (r StatusRange) String() string { return fmt.Sprintf("%d..%d", r.Min, r.Max) }

// Err returns a *StatusError when the status is outside accept.
func (e Envelope[T]) Err(op string, accept StatusRange) error {
	if accept.Contains(e.Status) {
		return nil
	}
	return &StatusError{Op: op, Status: e.Status, Message: e.Message}
}

// ErrRejected matches every *StatusError.
var ErrRejected = errors.New("library: rejected by server")

// StatusError is a response the server answered outside the accepted range.
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: server answered %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: server answered %d", e.Op, e.Status)
}

func (e *StatusError) Is(target error) bool { return target == ErrRejected }

// unwrap turns an API result into data or an error.
func unwrap[T any](op string, env Envelope[T], err error, accept StatusRange) (T, error) {
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	if err := env.Err(op, accept); err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}
