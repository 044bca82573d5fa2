// Copyright 2024-2026 Aiku AI

package bridge

import "sync"

// Record links one successfully relayed message to its mirror on the other
// platform. Records are append-only; Deleted marks that the mirror was
// removed so a repeated delete becomes a no-op instead of a second API call.
type Record struct {
	OriginID        string
	OriginAuthorID  string
	OriginChannelID string
	MirrorID        string
	Deleted         bool
}

// directionIndex holds both lookup directions for one relay direction. Kept
// as a single struct so origin and mirror views can never drift apart.
type directionIndex struct {
	byOrigin map[string]*Record
	byMirror map[string]*Record
}

// Cache is the in-memory bidirectional correspondence index. Two independent
// indexes exist, one per relay direction, since message IDs are
// platform-local and a message can only originate on one side.
//
// Safe for concurrent use. Growth is unbounded for the process lifetime;
// records are never evicted.
type Cache struct {
	mu   sync.RWMutex
	dirs [2]directionIndex
}

func NewCache() *Cache {
	c := &Cache{}
	for i := range c.dirs {
		c.dirs[i] = directionIndex{
			byOrigin: make(map[string]*Record),
			byMirror: make(map[string]*Record),
		}
	}
	return c
}

// Insert records a successful relay. A later insert for the same origin ID
// supersedes the old record in both views.
func (c *Cache) Insert(dir Direction, rec Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := &c.dirs[dir]
	if old, ok := idx.byOrigin[rec.OriginID]; ok {
		delete(idx.byMirror, old.MirrorID)
	}
	stored := rec
	idx.byOrigin[rec.OriginID] = &stored
	idx.byMirror[rec.MirrorID] = &stored
}

// ByOrigin looks up the record for a message that originated on dir's source
// platform.
func (c *Cache) ByOrigin(dir Direction, originID string) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.dirs[dir].byOrigin[originID]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// ByMirror looks up the record whose mirrored copy has the given ID.
func (c *Cache) ByMirror(dir Direction, mirrorID string) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.dirs[dir].byMirror[mirrorID]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// MarkDeleted flags a record's mirror as removed. The record itself stays so
// reply resolution keeps working for messages that quoted it.
func (c *Cache) MarkDeleted(dir Direction, originID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.dirs[dir].byOrigin[originID]; ok {
		rec.Deleted = true
	}
}

// Len returns the total number of records across both directions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.dirs[0].byOrigin) + len(c.dirs[1].byOrigin)
}
