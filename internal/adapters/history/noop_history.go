// Package history stores classification records in a write-only log.
package history

import (
	"context"

	"github.com/mikey/phishguard/internal/core"
)

// NoopHistory discards every record
type NoopHistory struct{}

// NewNoopHistory creates a history repository that stores nothing
func NewNoopHistory() *NoopHistory {
	return &NoopHistory{}
}

// Insert does nothing
func (NoopHistory) Insert(ctx context.Context, record *core.HistoryRecord) error {
	return nil
}

// Stop does nothing
func (NoopHistory) Stop() {}
