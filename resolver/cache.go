package resolver

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vasyahuyasa/apachelog/log"
)

// Entry is the result of resolving one address: the primary name (possibly
// replaced by a smart alias), the other names and the addresses.
type Entry struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	Addrs   []string `yaml:"addrs"`
}

// Store persists the whole cache at once.
type Store interface {
	Load() (map[string]Entry, error)
	Save(entries map[string]Entry) error
}

// Cache maps IP addresses to resolved entries. Entries are only added,
// never evicted. The backing store is read on first use.
type Cache struct {
	mu      sync.Mutex
	store   Store
	entries map[string]Entry
	loaded  bool
	dirty   bool
}

// NewCache creates a cache backed by store, a nil store keeps the cache in
// memory only.
func NewCache(store Store) *Cache {
	return &Cache{
		store:   store,
		entries: map[string]Entry{},
	}
}

// Load reads the store once. A missing or unreadable store leaves the
// cache empty.
func (c *Cache) Load() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadLocked()
}

func (c *Cache) loadLocked() {
	if c.loaded {
		return
	}

	c.loaded = true

	if c.store == nil {
		return
	}

	entries, err := c.store.Load()
	if err != nil {
		log.Printf("cannot load resolver cache, start empty: %v", err)
		return
	}

	for ip, e := range entries {
		// entries added before the load win
		if _, ok := c.entries[ip]; !ok {
			c.entries[ip] = e
		}
	}

	log.Debugf("resolver cache loaded with %d entries", len(entries))
}

func (c *Cache) Get(ip string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadLocked()

	e, ok := c.entries[ip]

	return e, ok
}

// Add stores e for ip unless ip is already known. It returns the entry
// held by the cache and whether e was inserted.
func (c *Cache) Add(ip string, e Entry) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadLocked()

	if existing, ok := c.entries[ip]; ok {
		return existing, false
	}

	c.entries[ip] = e
	c.dirty = true

	return e, true
}

// Entries returns a copy of the cache content.
func (c *Cache) Entries() map[string]Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadLocked()

	entries := make(map[string]Entry, len(c.entries))
	for ip, e := range c.entries {
		entries[ip] = e
	}

	return entries
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadLocked()

	return len(c.entries)
}

func (c *Cache) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.dirty
}

// Save writes the cache to the store if anything changed since the load.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// do not clobber a store that was never read
	c.loadLocked()

	if !c.dirty || c.store == nil {
		return nil
	}

	err := c.store.Save(c.entries)
	if err != nil {
		return fmt.Errorf("cannot save resolver cache: %w", err)
	}

	c.dirty = false

	log.Debugf("resolver cache saved with %d entries", len(c.entries))

	return nil
}

// ips collects the addresses of every entry named name.
func (c *Cache) ips(name string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadLocked()

	set := map[string]struct{}{}

	for _, e := range c.entries {
		if e.Name != name {
			continue
		}

		for _, addr := range e.Addrs {
			set[addr] = struct{}{}
		}
	}

	ips := make([]string, 0, len(set))
	for ip := range set {
		ips = append(ips, ip)
	}

	sort.Strings(ips)

	return ips
}
