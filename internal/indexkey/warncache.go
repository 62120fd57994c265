package indexkey

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// WarnCache deduplicates malformed-entry log lines so a pathological index
// batch (the same bad key repeated, or a hot malformed qualifier) cannot
// spam the logger — an enrichment beyond spec §7's bare "log and skip"
// (SPEC_FULL.md's domain stack). It is sized small and bounded; eviction
// just means the same key can warn again later, which is harmless.
type WarnCache struct {
	seen *lru.Cache[string, struct{}]
}

// NewWarnCache builds a cache holding up to size distinct malformed keys.
func NewWarnCache(size int) *WarnCache {
	c, err := lru.New[string, struct{}](size)
	if err != nil {
		// size <= 0; fall back to a minimal cache rather than failing the
		// whole scan over a logging nicety.
		c, _ = lru.New[string, struct{}](1)
	}
	return &WarnCache{seen: c}
}

// ShouldWarn reports whether key has not been warned about recently, and
// marks it as seen if so.
func (w *WarnCache) ShouldWarn(key []byte) bool {
	k := string(key)
	if w.seen.Contains(k) {
		return false
	}
	w.seen.Add(k, struct{}{})
	return true
}
