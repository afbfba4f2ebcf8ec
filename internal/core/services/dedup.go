package services

// Deduplicator tracks content hashes seen within one job. It is NOT
// safe for concurrent use; the pipeline calls it from a single
// collector goroutine. Cross-run duplicates are handled by the durable
// store's unique constraint on the (content hash, target) pair.
type Deduplicator struct {
	seen map[string]struct{}
}

// NewDeduplicator creates an empty deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Seen records the hash and reports whether it was already present.
// Calling it twice with the same hash returns false then true.
func (d *Deduplicator) Seen(contentHash string) bool {
	if _, ok := d.seen[contentHash]; ok {
		return true
	}
	d.seen[contentHash] = struct{}{}
	return false
}

// Len returns how many distinct hashes have been recorded.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}
