// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package muxdb multiplexes the named stores of the engine over one level db
// and keeps a read cache for the committed state.
package muxdb

import (
	"github.com/stakecore/stakecore/kv"
	"github.com/stakecore/stakecore/log"
	"github.com/stakecore/stakecore/lvldb"
)

var logger = log.WithContext("pkg", "muxdb")

// Options optional parameters for MuxDB.
type Options struct {
	// CacheSizeMB is the size of the read cache of committed values.
	CacheSizeMB int
	// ReadCacheMB is the size of read cache for underlying database.
	ReadCacheMB int
	// OpenFilesCacheCapacity is the capacity of open files caching for underlying database.
	OpenFilesCacheCapacity int
}

// MuxDB is the database of the engine.
type MuxDB struct {
	engine *lvldb.LevelDB
	cache  *cache
}

// Open opens or creates DB at the given path.
func Open(path string, options *Options) (*MuxDB, error) {
	engine, err := lvldb.New(path, lvldb.Options{
		CacheSize:              options.ReadCacheMB,
		OpenFilesCacheCapacity: options.OpenFilesCacheCapacity,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("opened database", "path", path, "cacheMB", options.CacheSizeMB)
	return &MuxDB{
		engine: engine,
		cache:  newCache(options.CacheSizeMB),
	}, nil
}

// NewMem creates a memory-backed DB.
func NewMem() *MuxDB {
	engine, _ := lvldb.NewMem()
	return &MuxDB{
		engine: engine,
		cache:  newCache(1),
	}
}

// Close closes the DB.
func (db *MuxDB) Close() error {
	return db.engine.Close()
}

// NewStore creates named kv-store.
func (db *MuxDB) NewStore(name string) kv.Store {
	return kv.Bucket(name).NewStore(db.engine)
}

// NewCachedStore creates named kv-store whose reads go through the read
// cache. Values written by its bulk refresh the cache once flushed.
func (db *MuxDB) NewCachedStore(name string) kv.Store {
	return db.cache.wrap(name, db.NewStore(name))
}

// CacheStats returns the hits and misses of the read cache.
func (db *MuxDB) CacheStats() (int64, int64) {
	_, hit, miss := db.cache.stats.Stats()
	return hit, miss
}
