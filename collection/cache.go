package collection

import "github.com/tdewolff/opentype"

// lruCache holds the parsed fonts of loaded resources within a byte budget.
type lruCache struct {
	budget      int64
	allocated   int64
	entries     map[string]*cacheEntry
	first, last *cacheEntry
}

type cacheEntry struct {
	prev, next *cacheEntry
	key        string
	fonts      []*opentype.Font
	size       int64
}

func newCache(budget int64) *lruCache {
	return &lruCache{
		budget:  budget,
		entries: map[string]*cacheEntry{},
	}
}

// Get returns the fonts of a resource and marks it as recently used.
func (l *lruCache) Get(key string) ([]*opentype.Font, bool) {
	ent, ok := l.entries[key]
	if !ok {
		return nil, false
	}
	l.moveToFront(ent)
	return ent.fonts, true
}

// Has returns true if the resource is loaded. It is not marked as recently used.
func (l *lruCache) Has(key string) bool {
	_, ok := l.entries[key]
	return ok
}

// Put adds a loaded resource of size bytes. If it takes more than half of the budget, the budget is raised to three times its size. Least recently used resources are evicted until the cache fits its budget, the new resource is never evicted.
func (l *lruCache) Put(key string, fonts []*opentype.Font, size int64) {
	if ent, ok := l.entries[key]; ok {
		l.allocated += size - ent.size
		ent.fonts = fonts
		ent.size = size
		l.moveToFront(ent)
	} else {
		ent = &cacheEntry{
			key:   key,
			fonts: fonts,
			size:  size,
		}
		l.entries[key] = ent
		l.allocated += size
		l.moveToFront(ent)
	}

	if l.budget/2 < size {
		tracer().Infof("font resource %s of %d bytes raises cache budget from %d to %d bytes", key, size, l.budget, 3*size)
		l.budget = 3 * size
	}
	for l.budget < l.allocated && l.last != l.first {
		l.removeLast()
	}
}

func (l *lruCache) moveToFront(ent *cacheEntry) {
	if ent == l.first {
		return
	}

	if ent.prev != nil {
		ent.prev.next = ent.next
	}
	if ent.next != nil {
		ent.next.prev = ent.prev
	}
	if ent == l.last {
		l.last = ent.prev
	}

	ent.prev = nil
	ent.next = l.first
	if l.first != nil {
		l.first.prev = ent
	}
	l.first = ent
	if l.last == nil {
		l.last = ent
	}
}

func (l *lruCache) removeLast() {
	ent := l.last
	if ent == nil {
		return
	}

	tracer().Debugf("evict font resource %s of %d bytes", ent.key, ent.size)
	delete(l.entries, ent.key)
	l.allocated -= ent.size
	l.last = ent.prev
	if l.last != nil {
		l.last.next = nil
	} else {
		l.first = nil
	}
	ent.prev = nil
}
