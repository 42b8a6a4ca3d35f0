package usecase

import (
	"context"
	"log/slog"
)

// LastHashReader returns the digest of the most recently stored document.
// ok is false when the store holds no document.
type LastHashReader interface {
	LatestHash(ctx context.Context) (hash string, ok bool, err error)
}

// ChangeDetector compares a new digest with the last stored one.
type ChangeDetector struct {
	store LastHashReader
}

// NewChangeDetector returns a ChangeDetector. A nil store always reports a change.
func NewChangeDetector(store LastHashReader) *ChangeDetector {
	return &ChangeDetector{store: store}
}

// Changed reports whether hash differs from the last stored digest.
// An empty or unreadable store counts as changed so validation still runs.
func (d *ChangeDetector) Changed(ctx context.Context, hash string) bool {
	if d.store == nil {
		return true
	}
	last, ok, err := d.store.LatestHash(ctx)
	if err != nil {
		slog.Warn("failed to read last content hash; treating payload as changed", "error", err)
		return true
	}
	if !ok {
		return true
	}
	return last != hash
}
