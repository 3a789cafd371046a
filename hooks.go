package querycache

// Hooks are lightweight callbacks for high-signal cache events.
// Implementations MUST be cheap and non-blocking; they run on the read path.
// Wrap slow sinks with hooks/async.
type Hooks interface {
	// An entry was deleted on read.
	// reason ∈ {"corrupt", "gen_mismatch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// A finished load was not stored because the key was invalidated while
	// it ran.
	StaleWriteSkipped(storageKey string)

	// A Get joined a load already in flight for the same key.
	LoadShared(storageKey string)

	// A loader returned an error. Nothing was stored.
	LoadFailed(storageKey string, err error)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// GenStore errors. count is the number of keys in the snapshot.
	GenSnapshotError(count int, err error)
	GenBumpError(storageKey string, err error)

	// Both gen bump and delete failed during Invalidate (likely backend outage).
	InvalidateOutage(key string, bumpErr, delErr error)
}

// NopHooks is the default.
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)               {}
func (NopHooks) StaleWriteSkipped(string)              {}
func (NopHooks) LoadShared(string)                     {}
func (NopHooks) LoadFailed(string, error)              {}
func (NopHooks) ProviderSetRejected(string)            {}
func (NopHooks) GenSnapshotError(int, error)           {}
func (NopHooks) GenBumpError(string, error)            {}
func (NopHooks) InvalidateOutage(string, error, error) {}
