package mailinline

import "runtime"

// Worker limits for Builder.Build.
const (
	// MaxAutoWorkers caps the automatic count. Each document already fans out
	// its image encodes, so more workers mostly add memory pressure.
	MaxAutoWorkers = 8

	// MaxAutoSnapshotWorkers caps the automatic count when every document
	// also holds a browser tab open.
	MaxAutoSnapshotWorkers = 4

	// MaxWorkers caps an explicit count.
	MaxWorkers = 64
)

// ResolveWorkers returns how many documents a build processes at once. A
// positive request wins, capped at MaxWorkers. Otherwise half of GOMAXPROCS
// is used, which automaxprocs keeps in line with container CPU quotas.
func ResolveWorkers(requested int, snapshots bool) int {
	if requested > 0 {
		return min(requested, MaxWorkers)
	}
	limit := MaxAutoWorkers
	if snapshots {
		limit = MaxAutoSnapshotWorkers
	}
	return min(max(runtime.GOMAXPROCS(0)/2, 1), limit)
}
