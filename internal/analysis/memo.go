package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/cache"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

// Memo caches derived figures keyed by a hash of the document content and
// the ideal map, so a cached entry is only ever returned for identical input.
type Memo struct {
	cache  *cache.LRUCache[Figures]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemo creates a memo holding at most size results for ttl.
func NewMemo(size int, ttl time.Duration) *Memo {
	return &Memo{cache: cache.NewLRUCache[Figures](size, ttl)}
}

// Derive returns the cached figures for (doc, ideal) or computes them.
func (m *Memo) Derive(doc core.Document, ideal core.TargetDistribution) Figures {
	key, ok := Fingerprint(doc, ideal)
	if !ok {
		return Derive(doc, ideal)
	}
	if f, found := m.cache.Get(key); found {
		m.hits.Add(1)
		return f
	}
	m.misses.Add(1)
	f := Derive(doc, ideal)
	m.cache.Set(key, f)
	return f
}

// Stats returns the hit and miss counters.
func (m *Memo) Stats() (hits, misses int64) {
	return m.hits.Load(), m.misses.Load()
}

// Cache exposes the underlying cache for registration with a cleanup manager.
func (m *Memo) Cache() *cache.LRUCache[Figures] {
	return m.cache
}

// Fingerprint hashes the persisted form of doc together with the ideal map.
func Fingerprint(doc core.Document, ideal core.TargetDistribution) (string, bool) {
	data, err := core.EncodeDocument(doc)
	if err != nil {
		return "", false
	}
	h := sha256.New()
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(ideal.Needs.String() + "/" + ideal.Wants.String() + "/" + ideal.Savings.String()))
	return hex.EncodeToString(h.Sum(nil)), true
}
