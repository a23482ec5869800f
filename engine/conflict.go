package engine

// checkVersion is the conflict detector: classic optimistic concurrency
// control by comparing the stored version against the version the caller
// last observed. A nil expectedVersion is a force save (first write after
// local creation, or an emergency save that must never be blocked) and
// skips the check entirely. The caller pairs an Ok result with a
// compare-and-swap at storedVersion so check and write stay atomic.
func checkVersion(storedVersion int64, expectedVersion *int64) *VersionConflictError {
	if expectedVersion == nil {
		return nil
	}
	if *expectedVersion != storedVersion {
		return &VersionConflictError{
			ServerVersion: storedVersion,
			ClientVersion: *expectedVersion,
		}
	}
	return nil
}
