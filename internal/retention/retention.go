// Package retention decides which snapshots fall outside a keep-last-N window.
package retention

import (
	"sort"

	"github.com/lzjever/ec2-rsnapshot/internal/core"
)

// Plan splits a listing into the snapshots to keep and the ones to delete.
// Both halves are in ascending StartTime order.
type Plan struct {
	Keep   []core.SnapshotRecord
	Delete []core.SnapshotRecord
}

// NewPlan sorts a copy of snapshots oldest first and marks everything
// before the newest `keep` entries for deletion. Equal StartTimes keep
// their listing order.
func NewPlan(snapshots []core.SnapshotRecord, keep int) Plan {
	if keep < 0 {
		keep = 0
	}

	sorted := make([]core.SnapshotRecord, len(snapshots))
	copy(sorted, snapshots)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	if len(sorted) <= keep {
		return Plan{Keep: sorted}
	}

	cut := len(sorted) - keep
	return Plan{Keep: sorted[cut:], Delete: sorted[:cut]}
}

// IDs returns the snapshot IDs of the delete half, oldest first.
func (p Plan) IDs() []string {
	ids := make([]string, 0, len(p.Delete))
	for _, s := range p.Delete {
		ids = append(ids, s.SnapshotID)
	}
	return ids
}

// SelectForDeletion returns the IDs of the oldest len(snapshots)-keep
// snapshots in ascending StartTime order, or an empty slice when the listing
// already fits.
func SelectForDeletion(snapshots []core.SnapshotRecord, keep int) []string {
	return NewPlan(snapshots, keep).IDs()
}
