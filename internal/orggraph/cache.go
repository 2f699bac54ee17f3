package orggraph

import (
	"sync"
	"sync/atomic"

	"ninebox/domain/core"
	"ninebox/domain/employee"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of populations whose graphs are retained.
const DefaultCacheSize = 8

type cacheSnapshot struct {
	graphs map[core.PopulationHash]*Service
	order  []core.PopulationHash
}

// Cache keeps org graphs keyed by the population content hash. Readers load
// an immutable snapshot and never block; writers copy the snapshot, add the
// new graph and swap it in. Concurrent misses for one hash share one build.
type Cache struct {
	max     int
	current atomic.Pointer[cacheSnapshot]
	writeMu sync.Mutex
	group   singleflight.Group
}

// NewCache returns a cache retaining at most max graphs.
func NewCache(max int) *Cache {
	if max <= 0 {
		max = DefaultCacheSize
	}
	c := &Cache{max: max}
	c.current.Store(&cacheSnapshot{graphs: map[core.PopulationHash]*Service{}})
	return c
}

// Get returns the graph for pop, building it on a miss.
func (c *Cache) Get(pop employee.Population) *Service {
	key := pop.Hash()
	if svc, ok := c.current.Load().graphs[key]; ok {
		return svc
	}

	v, _, _ := c.group.Do(key.String(), func() (interface{}, error) {
		if svc, ok := c.current.Load().graphs[key]; ok {
			return svc, nil
		}
		svc := NewFromPopulation(pop)
		c.store(key, svc)
		log.Debug().Str("population", key.Short()).Msg("org graph cached")
		return svc, nil
	})
	return v.(*Service)
}

// Len reports how many graphs are cached.
func (c *Cache) Len() int {
	return len(c.current.Load().graphs)
}

func (c *Cache) store(key core.PopulationHash, svc *Service) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	old := c.current.Load()
	next := &cacheSnapshot{
		graphs: make(map[core.PopulationHash]*Service, len(old.graphs)+1),
		order:  make([]core.PopulationHash, 0, len(old.order)+1),
	}
	for k, v := range old.graphs {
		next.graphs[k] = v
	}
	next.order = append(next.order, old.order...)

	next.graphs[key] = svc
	next.order = append(next.order, key)
	for len(next.order) > c.max {
		delete(next.graphs, next.order[0])
		next.order = next.order[1:]
	}
	c.current.Store(next)
}
