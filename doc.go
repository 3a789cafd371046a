// Package querycache memoizes the results of named, parameterized reads and
// lets writers invalidate them so dependent reads refetch.
//
// A read is identified by a Key: an operation name plus ordered params,
// rendered "op:p1:p2". Invalidation is prefix-matching on that tuple:
// invalidating K("getLibraryById") drops every getLibraryById:<id> entry,
// invalidating K("getLibraryById", "7") drops only that one.
//
// Components:
//   - Client: the process-wide handle. Create once, pass it to every reader
//     and writer, Close it at exit.
//   - Query[V]: typed read access (Get, Prefetch, Peek, Set) over a Codec[V].
//   - Provider: byte store with TTL (in-memory LRU by default; Ristretto,
//     BigCache or Redis).
//   - GenStore: generation counter per key prefix. Local by default, Redis
//     when several processes share one provider.
//
// Every entry records the generations of all of its key prefixes at the time
// its load started. A read serves the entry only if none of them moved since,
// so an invalidation that races with an in-flight load is never lost: the load
// still answers the callers waiting on it, but its result is not kept.
//
// Concurrent Gets for the same missing key share one loader call. A failed
// load is never stored; the next Get calls the loader again, exactly once.
//
// Storage keys:
//
//	q:<ns>:<op>[:<param>...]
package querycache
