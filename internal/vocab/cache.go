// Package vocab caches controlled-vocabulary terms and identity records
// for fast lookups during request handling.
//
// The cache is read-only between refreshes. Refresh bulk-selects every
// group, user and vocabulary record and swaps in a whole new snapshot;
// snapshots are never merged or mutated in place, so readers holding an
// old snapshot keep a consistent view across an in-flight refresh.
//
// Callers construct and inject a Cache explicitly; there is no hidden
// package-level instance.
package vocab

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bcgsc/pori-graphkb-core/internal/query"
	"github.com/bcgsc/pori-graphkb-core/internal/querysql"
	"github.com/bcgsc/pori-graphkb-core/internal/schema"
	"github.com/bcgsc/pori-graphkb-core/internal/store"
)

// Class names the cache bulk-selects on refresh.
const (
	GroupClass      = "UserGroup"
	UserClass       = "User"
	VocabularyClass = "Vocabulary"
)

// Snapshot is one immutable cache generation.
type Snapshot struct {
	// Groups indexes group records by name.
	Groups map[string]store.Record

	// Users indexes user records by name.
	Users map[string]store.Record

	// Terms holds the allowed vocabulary terms per class and property,
	// in their configured order.
	Terms map[string]map[string][]string
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		Groups: map[string]store.Record{},
		Users:  map[string]store.Record{},
		Terms:  map[string]map[string][]string{},
	}
}

// Cache holds the current snapshot behind a read-write lock. The zero
// value is not usable; use NewCache.
type Cache struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{snap: emptySnapshot()}
}

// Snapshot returns the current generation. The returned value must be
// treated as read-only.
func (c *Cache) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Group looks up a group record by name in the current snapshot.
func (c *Cache) Group(name string) (store.Record, bool) {
	rec, ok := c.Snapshot().Groups[name]
	return rec, ok
}

// User looks up a user record by name in the current snapshot.
func (c *Cache) User(name string) (store.Record, bool) {
	rec, ok := c.Snapshot().Users[name]
	return rec, ok
}

// Terms returns the allowed terms for a class property, or nil when the
// vocabulary declares none.
func (c *Cache) Terms(class, property string) []string {
	return c.Snapshot().Terms[class][property]
}

// Refresh rebuilds the snapshot from the engine and swaps it in
// wholesale. On error the previous snapshot stays in place.
func (c *Cache) Refresh(ctx context.Context, engine store.Engine, models schema.Set) error {
	next := emptySnapshot()

	groups, err := selectAll(ctx, engine, models, GroupClass)
	if err != nil {
		return fmt.Errorf("refreshing groups: %w", err)
	}
	for _, rec := range groups {
		if name, ok := rec["name"].(string); ok {
			next.Groups[name] = rec
		}
	}

	users, err := selectAll(ctx, engine, models, UserClass)
	if err != nil {
		return fmt.Errorf("refreshing users: %w", err)
	}
	for _, rec := range users {
		if name, ok := rec["name"].(string); ok {
			next.Users[name] = rec
		}
	}

	terms, err := selectAll(ctx, engine, models, VocabularyClass)
	if err != nil {
		return fmt.Errorf("refreshing vocabulary: %w", err)
	}
	next.Terms = indexTerms(terms)

	c.mu.Lock()
	c.snap = next
	c.mu.Unlock()
	return nil
}

// selectAll fetches every live record of one class. A class missing from
// the model set is tolerated and yields no records.
func selectAll(ctx context.Context, engine store.Engine, models schema.Set, class string) ([]store.Record, error) {
	model, ok := models.Get(class)
	if !ok {
		return nil, nil
	}
	q, err := query.NewSelectionQuery(models, model, nil, query.DefaultOptions())
	if err != nil {
		return nil, err
	}
	stmt, err := querysql.NewCompiler(models).Compile(q)
	if err != nil {
		return nil, err
	}
	return engine.Execute(ctx, stmt.Text, stmt.Params, store.Options{})
}

// vocabEntry pairs a term with its explicit ordering key.
type vocabEntry struct {
	term string
	rank int
}

// indexTerms groups vocabulary records by their target class and
// property, ordered by sortOrder then term.
func indexTerms(records []store.Record) map[string]map[string][]string {
	entries := map[string]map[string][]vocabEntry{}
	for _, rec := range records {
		class, _ := rec["class"].(string)
		property, _ := rec["property"].(string)
		term, _ := rec["name"].(string)
		if class == "" || property == "" || term == "" {
			continue
		}
		if entries[class] == nil {
			entries[class] = map[string][]vocabEntry{}
		}
		entries[class][property] = append(entries[class][property], vocabEntry{
			term: term,
			rank: intField(rec, "sortOrder"),
		})
	}

	out := map[string]map[string][]string{}
	for class, byProp := range entries {
		out[class] = map[string][]string{}
		for property, list := range byProp {
			sort.SliceStable(list, func(i, j int) bool {
				if list[i].rank != list[j].rank {
					return list[i].rank < list[j].rank
				}
				return list[i].term < list[j].term
			})
			terms := make([]string, len(list))
			for i, e := range list {
				terms[i] = e.term
			}
			out[class][property] = terms
		}
	}
	return out
}

func intField(rec store.Record, name string) int {
	switch v := rec[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
