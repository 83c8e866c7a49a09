// evictor.go houses the eviction loop for Store.  Every EvictInterval it
// scans the map and removes:
//
//   - sessions idle longer than IdleTTL
//   - least-recently-used sessions when the count exceeds MaxEntries
//
// lookup applies the same cap inline whenever it creates a session.
//
// Each eviction updates Prometheus counters.
package session

import (
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

func (s *Store) evictLoop() {
	defer close(s.done)

	t := time.NewTicker(s.opts.EvictInterval)
	defer t.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.evict()
		}
	}
}

// evict runs one idle pass followed by one LRU pass.
func (s *Store) evict() {
	now := s.now().UnixNano()
	var idleEvicted, lruEvicted int

	s.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		idle := time.Duration(now - atomic.LoadInt64(&ent.lastSeen))
		if idle > s.opts.IdleTTL && s.remove(key.(string), ent) {
			idleEvicted++
		}
		return true
	})

	if over := s.Len() - s.opts.MaxEntries; over > 0 {
		lruEvicted = s.evictOldest(over)
	}

	if idleEvicted+lruEvicted > 0 {
		zap.S().Infow("sessions evicted",
			"idle", idleEvicted,
			"lru", lruEvicted,
			"live", s.Len(),
		)
	}
}

// evictOldest removes up to k sessions with the oldest lastSeen and
// returns how many it removed.
func (s *Store) evictOldest(k int) int {
	type kv struct {
		key string
		ent *entry
		at  int64
	}
	var all []kv
	s.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		all = append(all, kv{key: key.(string), ent: ent, at: atomic.LoadInt64(&ent.lastSeen)})
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })

	removed := 0
	for i := 0; i < k && i < len(all); i++ {
		if s.remove(all[i].key, all[i].ent) {
			removed++
		}
	}
	return removed
}
