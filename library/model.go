package library

import (
	"time"

	"github.com/unkn0wn-root/querycache/tagset"
)

// Tag is the server-side tag record.
type Tag = tagset.Tag

type Library struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Description *string   `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Series      []Series  `json:"series,omitempty"`
	// Tags is nil when the relation was not loaded.
	Tags           *[]Tag         `json:"tags,omitempty"`
	LibraryOptions LibraryOptions `json:"libraryOptions"`
}

// TagList returns the loaded tags, or nil when they were not loaded.
func (l Library) TagList() []Tag {
	if l.Tags == nil {
		return nil
	}
	return *l.Tags
}

type LibraryPattern string

const (
	SeriesBased     LibraryPattern = "SERIES_BASED"
	CollectionBased LibraryPattern = "COLLECTION_BASED"
)

// LibraryOptions is round-tripped unchanged on update except for edited fields.
type LibraryOptions struct {
	ID                    string         `json:"id,omitempty"`
	ConvertRarToZip       bool           `json:"convertRarToZip"`
	HardDeleteConversions bool           `json:"hardDeleteConversions"`
	CreateWebpThumbnails  bool           `json:"createWebpThumbnails"`
	LibraryPattern        LibraryPattern `json:"libraryPattern,omitempty"`
}

type ScanMode string

const (
	ScanNone    ScanMode = "NONE"
	ScanSync    ScanMode = "SYNC"
	ScanBatched ScanMode = "BATCHED"
)

func (m ScanMode) Valid() bool {
	switch m {
	case ScanNone, ScanSync, ScanBatched:
		return true
	}
	return false
}

type CreateLibraryArgs struct {
	Name           string          `json:"name"`
	Path           string          `json:"path"`
	Description    *string         `json:"description,omitempty"`
	Tags           []Tag           `json:"tags,omitempty"`
	ScanMode       *ScanMode       `json:"scanMode,omitempty"`
	LibraryOptions *LibraryOptions `json:"libraryOptions,omitempty"`
}

// UpdateLibraryArgs is the full library record plus the association changes.
// RemovedTags is sent as null when nothing is removed.
type UpdateLibraryArgs struct {
	Library
	RemovedTags []Tag     `json:"removedTags"`
	ScanMode    *ScanMode `json:"scanMode,omitempty"`
}

type FileStatus string

const (
	FileUnknown     FileStatus = "UNKNOWN"
	FileReady       FileStatus = "READY"
	FileUnsupported FileStatus = "UNSUPPORTED"
	FileError       FileStatus = "ERROR"
	FileMissing     FileStatus = "MISSING"
)

type Series struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Description *string    `json:"description,omitempty"`
	Status      FileStatus `json:"status"`
	UpdatedAt   string     `json:"updatedAt"`
	LibraryID   string     `json:"libraryId"`
	MediaCount  *int64     `json:"mediaCount,omitempty"`
	Tags        *[]Tag     `json:"tags,omitempty"`
}

type LibrariesStats struct {
	BookCount   uint64 `json:"bookCount"`
	SeriesCount uint64 `json:"seriesCount"`
	TotalBytes  uint64 `json:"totalBytes"`
}

type JobStatus string

const (
	JobRunning   JobStatus = "RUNNING"
	JobQueued    JobStatus = "QUEUED"
	JobCompleted JobStatus = "COMPLETED"
	JobCancelled JobStatus = "CANCELLED"
	JobFailed    JobStatus = "FAILED"
)

type JobReport struct {
	ID                 *string   `json:"id,omitempty"`
	Kind               string    `json:"kind"`
	Details            *string   `json:"details,omitempty"`
	Status             JobStatus `json:"status"`
	TaskCount          *int      `json:"taskCount,omitempty"`
	CompletedTaskCount *int      `json:"completedTaskCount,omitempty"`
	SecondsElapsed     *uint64   `json:"secondsElapsed,omitempty"`
	CompletedAt        *string   `json:"completedAt,omitempty"`
}

type LogFileMeta struct {
	Path     string `json:"path"`
	Size     uint64 `json:"size"`
	Modified string `json:"modified"`
}

type PageInfo struct {
	TotalPages  int  `json:"totalPages"`
	CurrentPage int  `json:"currentPage"`
	PageSize    int  `json:"pageSize"`
	PageOffset  int  `json:"pageOffset"`
	ZeroBased   bool `json:"zeroBased"`
}

// Page is a pageable response. Info is nil for unpaged requests.
type Page[T any] struct {
	Data T         `json:"data"`
	Info *PageInfo `json:"_page,omitempty"`
}
