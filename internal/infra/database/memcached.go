package database

import (
	"errors"

	"github.com/bradfitz/gomemcache/memcache"
)

const (
	rootCachePrefix = "repoindex:root:"
	// seconds a filled root may outlive a concurrent update
	rootCacheTTL = 60
)

func NewMemcached(server string) *memcache.Client {
	if server == "" {
		return nil
	}
	return memcache.New(server)
}

func rootCacheKey(partition, did string) string {
	return rootCachePrefix + partition + ":" + did
}

func (d *Database) cachedRoot(did string) (string, bool) {
	if d.rootCache == nil {
		return "", false
	}
	item, err := d.rootCache.Get(rootCacheKey(d.partition, did))
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			d.log.Warn().Err(err).Str("did", did).Msg("repo root cache read failed")
		}
		return "", false
	}
	return string(item.Value), true
}

// fillRoot caches a root read from the database.
func (d *Database) fillRoot(did, root string) {
	if d.rootCache == nil {
		return
	}
	err := d.rootCache.Set(&memcache.Item{
		Key:        rootCacheKey(d.partition, did),
		Value:      []byte(root),
		Expiration: rootCacheTTL,
	})
	if err != nil {
		d.log.Warn().Err(err).Str("did", did).Msg("repo root cache write failed")
	}
}

// forgetRoot drops did's cached root once the database holds a newer one.
func (d *Database) forgetRoot(did string) {
	if d.rootCache == nil {
		return
	}
	err := d.rootCache.Delete(rootCacheKey(d.partition, did))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		d.log.Warn().Err(err).Str("did", did).Msg("repo root cache invalidation failed")
	}
}
