// Package query caches backend reads per resource and filter set.
//
// Every key carries a generation taken from a cache-wide counter. Starting a
// fetch or invalidating the key's resource assigns a new one, and a fetch only writes its outcome when its
// generation is still current, so a superseded response never overwrites
// newer visible state.
package query

import (
	"context"
	"net/url"
	"sort"
	"sync"
	"time"
)

// Estado is the tri-state a view observes per query (plus Inactivo before the first fetch).
type Estado int

const (
	Inactivo Estado = iota
	Cargando
	Error
	Exito
)

func (e Estado) String() string {
	switch e {
	case Cargando:
		return "loading"
	case Error:
		return "error"
	case Exito:
		return "success"
	default:
		return "idle"
	}
}

// Key identifies one query: backend resource plus canonical filters.
type Key struct {
	Recurso string
	Filtros string
}

// NewKey canonicalises filters so that equal filter sets map to the same key
// regardless of insertion order. Empty values are dropped.
func NewKey(recurso string, filtros url.Values) Key {
	clean := url.Values{}
	for k, vs := range filtros {
		for _, v := range vs {
			if v != "" {
				clean.Add(k, v)
			}
		}
	}
	for k := range clean {
		sort.Strings(clean[k])
	}
	// Encode sorts by key
	return Key{Recurso: recurso, Filtros: clean.Encode()}
}

func (k Key) String() string {
	if k.Filtros == "" {
		return k.Recurso
	}
	return k.Recurso + "?" + k.Filtros
}

// Snapshot is the visible state of one key.
type Snapshot struct {
	Estado        Estado
	Datos         any
	Err           error
	ActualizadoEn time.Time
	Obsoleto      bool
}

type entry struct {
	gen  uint64
	snap Snapshot
	// previo is the last settled snapshot, restored when an invalidation
	// supersedes the fetch in flight.
	previo Snapshot
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	seq     uint64
	ttl     time.Duration
	entries map[Key]*entry
	now     func() time.Time
}

// New returns a cache whose successes stay fresh for ttl; ttl <= 0 keeps them
// fresh until invalidated.
func New(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, entries: make(map[Key]*entry), now: time.Now}
}

// Estado returns the current snapshot of k.
func (c *Cache) Estado(k Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[k]; ok {
		return e.snap
	}
	return Snapshot{Estado: Inactivo}
}

// Invalidar marks every key of the given resources stale and supersedes their
// in-flight fetches.
func (c *Cache) Invalidar(recursos ...string) {
	set := make(map[string]bool, len(recursos))
	for _, r := range recursos {
		set[r] = true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if set[k.Recurso] {
			c.seq++
			e.gen = c.seq
			if e.snap.Estado == Cargando {
				e.snap = e.previo
			}
			e.snap.Obsoleto = true
		}
	}
}

// Limpiar drops every entry, e.g. on logout.
func (c *Cache) Limpiar() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*entry)
}

// cached returns fresh data for k, if any.
func (c *Cache) cached(k Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok || e.snap.Estado != Exito || e.snap.Obsoleto {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.snap.ActualizadoEn) >= c.ttl {
		return nil, false
	}
	return e.snap.Datos, true
}

// begin starts a fetch for k and returns its generation.
func (c *Cache) begin(k Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		e = &entry{}
		c.entries[k] = e
	}
	c.seq++
	e.gen = c.seq
	if e.snap.Estado != Cargando {
		e.previo = e.snap
	}
	e.snap.Estado = Cargando
	e.snap.Err = nil
	return e.gen
}

// settle writes a fetch outcome when gen is still current. It reports whether
// the outcome became visible.
func (c *Cache) settle(k Key, gen uint64, datos any, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok || e.gen != gen {
		return false
	}
	if err != nil {
		e.snap.Estado = Error
		e.snap.Err = err
		return true
	}
	e.snap = Snapshot{Estado: Exito, Datos: datos, ActualizadoEn: c.now()}
	return true
}

// Fetch returns fresh cached data for k or runs fn. fn's result is always
// returned to the caller; it is stored only if no newer fetch or invalidation
// happened meanwhile.
func Fetch[T any](ctx context.Context, c *Cache, k Key, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := c.cached(k); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	gen := c.begin(k)
	datos, err := fn(ctx)
	c.settle(k, gen, datos, err)
	return datos, err
}

// Mutar runs a mutation and invalidates recursos only when it succeeds.
func Mutar[T any](ctx context.Context, c *Cache, fn func(context.Context) (T, error), recursos ...string) (T, error) {
	out, err := fn(ctx)
	if err != nil {
		return out, err
	}
	c.Invalidar(recursos...)
	return out, nil
}
