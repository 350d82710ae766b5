package backend

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/stanza/internal/log"
)

const (
	directoryExpiration      = 10 * time.Minute
	directoryCleanupInterval = 30 * time.Minute
)

// Directory caches user display-name lookups. Chat log rendering asks
// for speaker names on every redraw; the resolver (a backend call) runs
// only on cache misses.
type Directory struct {
	cache   *gocache.Cache
	resolve func(id string) (User, bool)
}

// NewDirectory creates a directory backed by the given resolver.
func NewDirectory(resolve func(id string) (User, bool)) *Directory {
	return &Directory{
		cache:   gocache.New(directoryExpiration, directoryCleanupInterval),
		resolve: resolve,
	}
}

// DisplayName resolves a user id to a display name, falling back to the
// id itself when the user is unknown.
func (d *Directory) DisplayName(id string) string {
	if v, found := d.cache.Get(id); found {
		if name, ok := v.(string); ok {
			return name
		}
		log.Error(log.CatBackend, "wrong type assertion reading directory cache", "id", id)
	}
	user, ok := d.resolve(id)
	if !ok {
		return id
	}
	name := user.DisplayName()
	if name == "" {
		name = id
	}
	d.cache.Set(id, name, gocache.DefaultExpiration)
	return name
}

// Invalidate drops one cached entry, used when a backend announces a
// profile change.
func (d *Directory) Invalidate(id string) {
	d.cache.Delete(id)
}
