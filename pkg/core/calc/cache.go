package calc

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"

	"statement_insight/pkg/models"
)

// DefaultCacheEntries bounds the number of memoized tables.
const DefaultCacheEntries = 64

// Cache memoizes DeriveGrowthAndShares per identical input.
// Derivation is pure, so a hit is indistinguishable from recomputing.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*models.FinancialTable
	maxEntries int
	hits       int
	misses     int
}

// NewCache creates a cache holding at most maxEntries tables.
// Non-positive values use DefaultCacheEntries.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &Cache{
		entries:    make(map[string]*models.FinancialTable),
		maxEntries: maxEntries,
	}
}

// Derive returns the cached table for rows or computes and stores it.
// Errors are not cached. The returned table is a copy owned by the caller.
func (c *Cache) Derive(rows []models.FinancialRow, p Patterns) (*models.FinancialTable, error) {
	key := ContentHash(rows, p)

	c.mu.Lock()
	if t, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return t.Clone(), nil
	}
	c.misses++
	c.mu.Unlock()

	table, err := DeriveGrowthAndShares(rows, p)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if len(c.entries) >= c.maxEntries {
		// Reset when full.
		c.entries = make(map[string]*models.FinancialTable)
	}
	c.entries[key] = table
	c.mu.Unlock()

	return table.Clone(), nil
}

// Stats returns hit and miss counters.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached tables.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ContentHash fingerprints the rows and the pattern set.
func ContentHash(rows []models.FinancialRow, p Patterns) string {
	h := sha256.New()
	writeString := func(s string) {
		var n [8]byte
		binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	writeFloat := func(f float64) {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
		h.Write(b[:])
	}

	writeString(p.TotalAssets)
	writeString(p.ShortTermAssets)
	writeString(p.ShortTermLiabilities)
	for _, r := range rows {
		writeString(r.Label)
		writeFloat(r.Prior)
		writeFloat(r.Current)
	}
	return hex.EncodeToString(h.Sum(nil))
}
