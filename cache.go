package cashcow

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

// EntitySetCache holds the resolved entity set for each scenario name,
// invalidated only by an explicit Clear (spec §4.5 "no TTL"). A single-writer,
// multi-reader discipline is all the engine needs: entity sets are built once
// per scenario and read many times per calculate() call.
type EntitySetCache struct {
	mu    sync.RWMutex
	byKey map[string][]*Entity
}

// NewEntitySetCache returns an empty cache.
func NewEntitySetCache() *EntitySetCache {
	return &EntitySetCache{byKey: make(map[string][]*Entity)}
}

// Get returns the cached entity set for a scenario, if present.
func (c *EntitySetCache) Get(scenario string) ([]*Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.byKey[scenario]
	return v, ok
}

// Put stores a resolved entity set under a scenario name.
func (c *EntitySetCache) Put(scenario string, entities []*Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey[scenario] = entities
}

// Clear drops every cached entity set.
func (c *EntitySetCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey = make(map[string][]*Entity)
}

// tableCacheKey hashes the inputs that fully determine a ForecastTable
// (spec §4.5): scenario, window, the entity set's version, and starting
// cash. entitySetVersion lets callers invalidate just by bumping a counter
// after a document-store write, without walking every cached table.
func tableCacheKey(scenario string, start, end time.Time, entitySetVersion int, startingCash float64) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%.10f", scenario, formatDate(start), formatDate(end), entitySetVersion, startingCash)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// TableCache is the storage contract for completed forecast tables, shared
// by the in-memory and bbolt-backed implementations below.
type TableCache interface {
	Get(key string) (*ForecastTable, bool)
	Put(key string, table *ForecastTable)
	Clear() error
}

// MemoryTableCache is the default, process-local table cache.
type MemoryTableCache struct {
	mu    sync.RWMutex
	byKey map[string]*ForecastTable
}

// NewMemoryTableCache returns an empty in-memory table cache.
func NewMemoryTableCache() *MemoryTableCache {
	return &MemoryTableCache{byKey: make(map[string]*ForecastTable)}
}

func (c *MemoryTableCache) Get(key string) (*ForecastTable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byKey[key]
	return t, ok
}

func (c *MemoryTableCache) Put(key string, table *ForecastTable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey[key] = table
}

func (c *MemoryTableCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey = make(map[string]*ForecastTable)
	return nil
}

var bucketForecastTables = []byte("forecast_tables")

// BoltTableCache persists completed forecast tables across process restarts,
// the same db.Update/db.View bucket discipline the ledger's own storage
// layer uses. Values are encoded with encoding/gob rather than protobuf:
// the generated protobuf message types that storage layer depended on are
// not part of this package, and hand-writing fake generated code to keep
// the dependency would be fabricating it.
type BoltTableCache struct {
	db *bbolt.DB
}

// NewBoltTableCache opens (or creates) a bbolt database at dbPath and
// prepares the forecast-table bucket.
func NewBoltTableCache(dbPath string) (*BoltTableCache, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open table cache database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketForecastTables)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize table cache bucket: %w", err)
	}
	return &BoltTableCache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *BoltTableCache) Close() error {
	return c.db.Close()
}

// Get retrieves and decodes a cached table, if present.
func (c *BoltTableCache) Get(key string) (*ForecastTable, bool) {
	var table *ForecastTable
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketForecastTables)
		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}
		table = &ForecastTable{}
		return gob.NewDecoder(bytes.NewReader(data)).Decode(table)
	})
	if err != nil || table == nil {
		return nil, false
	}
	return table, true
}

// Put gob-encodes and stores a completed table.
func (c *BoltTableCache) Put(key string, table *ForecastTable) {
	_ = c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketForecastTables)
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(table); err != nil {
			return fmt.Errorf("failed to encode forecast table: %w", err)
		}
		return b.Put([]byte(key), buf.Bytes())
	})
}

// Clear empties the forecast-table bucket.
func (c *BoltTableCache) Clear() error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketForecastTables); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketForecastTables)
		return err
	})
}
