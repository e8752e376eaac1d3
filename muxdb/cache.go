// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package muxdb

import (
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"github.com/qianbin/directcache"

	cachestats "github.com/stakecore/stakecore/cache"
	"github.com/stakecore/stakecore/kv"
)

// marks a key known to be absent from the store.
var absent = []byte{}

var errCachedNotFound = errors.New("not found (cached)")

// cache is the read cache of committed values. Keys are prefixed by the
// store name so stores never share entries.
type cache struct {
	values      *directcache.Cache
	stats       cachestats.Stats
	lastLogTime atomic.Int64
}

func newCache(sizeMB int) *cache {
	if sizeMB < 1 {
		sizeMB = 1
	}
	c := &cache{values: directcache.New(sizeMB * 1024 * 1024)}
	c.lastLogTime.Store(time.Now().UnixNano())
	return c
}

func (c *cache) log() {
	now := time.Now().UnixNano()
	last := c.lastLogTime.Swap(now)

	if now-last > int64(time.Second*20) {
		changed, hit, miss := c.stats.Stats()
		if changed {
			logger.Debug("state cache stats", "hit", hit, "miss", miss)
		}
		metricCacheHitMiss().SetWithLabel(hit, map[string]string{"event": "hit"})
		metricCacheHitMiss().SetWithLabel(miss, map[string]string{"event": "miss"})
	} else {
		c.lastLogTime.CompareAndSwap(now, last)
	}
}

// get returns the cached value and whether the key was cached. A cached
// absent key yields a nil value.
func (c *cache) get(key []byte) ([]byte, bool) {
	var val []byte
	found := c.values.AdvGet(key, func(v []byte) {
		if len(v) > 0 {
			val = slices.Clone(v[1:])
		}
	}, false)
	c.log()
	if !found {
		c.stats.Miss()
		return nil, false
	}
	c.stats.Hit()
	return val, true
}

// set caches val, or the absence of key when val is nil. Values are
// prefixed by one byte so an empty stored value differs from absence.
func (c *cache) set(key, val []byte) {
	if val == nil {
		_ = c.values.Set(key, absent)
		return
	}
	_ = c.values.AdvSet(key, len(val)+1, func(v []byte) {
		v[0] = 1
		copy(v[1:], val)
	})
}

func (c *cache) wrap(name string, src kv.Store) kv.Store {
	key := func(k []byte) []byte {
		return append([]byte(name), k...)
	}
	isNotFound := func(err error) bool {
		return errors.Is(err, errCachedNotFound) || src.IsNotFound(err)
	}
	get := func(k []byte) ([]byte, error) {
		ck := key(k)
		if val, ok := c.get(ck); ok {
			if val == nil {
				return nil, errCachedNotFound
			}
			return val, nil
		}
		val, err := src.Get(k)
		if err != nil {
			if src.IsNotFound(err) {
				c.set(ck, nil)
			}
			return nil, err
		}
		c.set(ck, val)
		return val, nil
	}

	return &struct {
		kv.GetFunc
		kv.HasFunc
		kv.IsNotFoundFunc
		kv.Putter
		kv.SnapshotFunc
		kv.BulkFunc
		kv.IterateFunc
		kv.CloseFunc
	}{
		get,
		func(k []byte) (bool, error) {
			_, err := get(k)
			if err != nil {
				if isNotFound(err) {
					return false, nil
				}
				return false, err
			}
			return true, nil
		},
		isNotFound,
		&struct {
			kv.PutFunc
			kv.DeleteFunc
		}{
			func(k, v []byte) error {
				if err := src.Put(k, v); err != nil {
					return err
				}
				c.set(key(k), v)
				return nil
			},
			func(k []byte) error {
				if err := src.Delete(k); err != nil {
					return err
				}
				c.set(key(k), nil)
				return nil
			},
		},
		src.Snapshot,
		func() kv.Bulk {
			return c.wrapBulk(key, src.Bulk())
		},
		src.Iterate,
		src.Close,
	}
}

type pendingWrite struct {
	key []byte
	val []byte
}

// wrapBulk refreshes the cache with the written values once the bulk is
// flushed.
func (c *cache) wrapBulk(key func([]byte) []byte, bulk kv.Bulk) kv.Bulk {
	var pending []pendingWrite
	return &struct {
		kv.PutFunc
		kv.DeleteFunc
		kv.WriteFunc
	}{
		func(k, v []byte) error {
			if err := bulk.Put(k, v); err != nil {
				return err
			}
			pending = append(pending, pendingWrite{key(k), slices.Clone(v)})
			return nil
		},
		func(k []byte) error {
			if err := bulk.Delete(k); err != nil {
				return err
			}
			pending = append(pending, pendingWrite{key(k), nil})
			return nil
		},
		func() error {
			if err := bulk.Write(); err != nil {
				return err
			}
			for _, w := range pending {
				c.set(w.key, w.val)
			}
			pending = pending[:0]
			return nil
		},
	}
}
