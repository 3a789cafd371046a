package library

import (
	"strconv"

	"github.com/unkn0wn-root/querycache"
)

// Cache operation names.
const (
	KeyLibraries      = "getLibraries"
	KeyLibraryByID    = "getLibraryById"
	KeyLibrarySeries  = "getLibrarySeries"
	KeyLibrariesStats = "getLibrariesStats"
	KeyJobReports     = "getJobReports"
	KeyAllTags        = "getAllTags"
	KeyLogFileMeta    = "getLogFileMeta"
)

func LibrariesKey() querycache.Key        { return querycache.K(KeyLibraries) }
func LibraryKey(id string) querycache.Key { return querycache.K(KeyLibraryByID, id) }
func JobReportsKey() querycache.Key       { return querycache.K(KeyJobReports) }
func AllTagsKey() querycache.Key          { return querycache.K(KeyAllTags) }
func LogFileMetaKey() querycache.Key      { return querycache.K(KeyLogFileMeta) }
func LibrariesStatsKey() querycache.Key   { return querycache.K(KeyLibrariesStats) }

// SeriesKey is keyed by library first so invalidating a library's series
// covers every page.
func SeriesKey(id string, page int) querycache.Key {
	return querycache.K(KeyLibrarySeries, id, strconv.Itoa(page))
}
