package systems

import (
	"sync/atomic"

	"github.com/spaghettifunk/anima-resources/engine/assets"
	"github.com/spaghettifunk/anima-resources/engine/bundles"
)

// Store identifies one of the backing stores in metrics and logs.
type Store uint8

const (
	StoreEditor Store = iota
	StoreBundle
	StoreResources
	storeCount
)

func (s Store) String() string {
	switch s {
	case StoreEditor:
		return assets.EditorStoreName
	case StoreBundle:
		return bundles.StoreName
	case StoreResources:
		return assets.ResourcesStoreName
	}
	return "unknown"
}

// ResourceMetrics counts what every Load did per store. Skipped means the
// store was not selected by the mode or not composed, failed means it was
// consulted and had nothing usable.
type ResourceMetrics struct {
	loads   atomic.Uint64
	misses  atomic.Uint64
	hits    [storeCount]atomic.Uint64
	skipped [storeCount]atomic.Uint64
	failed  [storeCount]atomic.Uint64
}

type StoreCounters struct {
	Hits    uint64
	Skipped uint64
	Failed  uint64
}

type MetricsSnapshot struct {
	Loads  uint64
	Misses uint64
	Stores map[string]StoreCounters
}

func NewResourceMetrics() *ResourceMetrics {
	return &ResourceMetrics{}
}

func (m *ResourceMetrics) load() { m.loads.Add(1) }
func (m *ResourceMetrics) miss() { m.misses.Add(1) }
func (m *ResourceMetrics) hit(s Store) { m.hits[s].Add(1) }
func (m *ResourceMetrics) skip(s Store) { m.skipped[s].Add(1) }
func (m *ResourceMetrics) fail(s Store) { m.failed[s].Add(1) }

func (m *ResourceMetrics) Hits(s Store) uint64 {
	return m.hits[s].Load()
}

func (m *ResourceMetrics) Skipped(s Store) uint64 {
	return m.skipped[s].Load()
}

func (m *ResourceMetrics) Failed(s Store) uint64 {
	return m.failed[s].Load()
}

func (m *ResourceMetrics) Misses() uint64 {
	return m.misses.Load()
}

func (m *ResourceMetrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Loads:  m.loads.Load(),
		Misses: m.misses.Load(),
		Stores: make(map[string]StoreCounters, storeCount),
	}
	for s := Store(0); s < storeCount; s++ {
		snap.Stores[s.String()] = StoreCounters{
			Hits:    m.hits[s].Load(),
			Skipped: m.skipped[s].Load(),
			Failed:  m.failed[s].Load(),
		}
	}
	return snap
}
