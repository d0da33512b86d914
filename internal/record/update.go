package record

import (
	"context"
	"fmt"

	"github.com/bcgsc/pori-graphkb-core/internal/gkerr"
	"github.com/bcgsc/pori-graphkb-core/internal/query"
	"github.com/bcgsc/pori-graphkb-core/internal/schema"
	"github.com/bcgsc/pori-graphkb-core/internal/store"
)

// Update applies content to the single live record matching where, as one
// atomic transaction: an immutable deletion-stamped snapshot of the
// current state is created first, then the live record is rewritten in
// place with its history link pointing at the snapshot. The live @rid
// never changes.
//
// The returned record is fetched back with its history chain expanded to
// the manager's bounded depth.
func (m *Manager) Update(ctx context.Context, model *schema.Model, where map[string]query.Condition, content map[string]any, user store.Record) (store.Record, error) {
	for name := range content {
		if protectedFields[name] {
			return nil, gkerr.Attribute(name, "field is managed and cannot be set directly")
		}
	}

	current, err := m.selectOne(ctx, model, where)
	if err != nil {
		return nil, err
	}
	changes, err := model.FormatRecord(content, schema.FormatOptions{DropExtra: true})
	if err != nil {
		return nil, err
	}
	// Formatting drops undeclared fields; an empty change set would render
	// an unparseable SET clause, so fail before opening the transaction.
	if len(changes) == 0 {
		return nil, gkerr.Attribute("content", "update contains no declared properties")
	}

	snapshot := m.snapshotOf(current, user)

	next := 0
	snapParams := map[string]any{}
	snapText := fmt.Sprintf("CREATE VERTEX %s SET %s", model.Name, bindSet(snapshot, snapParams, &next))

	updParams := map[string]any{}
	updText := fmt.Sprintf("UPDATE %s SET %s, %s = $snapshot WHERE %s",
		current.RID(), bindSet(changes, updParams, &next), store.FieldHistory,
		m.liveGuard(current, updParams, &next))

	m.logger.Debug("updating record", "class", model.Name, "rid", current.RID())
	if _, err := m.engine.Tx(model.Name).
		Let("snapshot", snapText, snapParams).
		Let("updated", updText, updParams).
		Commit(ctx, "updated"); err != nil {
		return nil, translate(err, updText)
	}

	return m.fetchWithHistory(ctx, model, current.RID())
}

// Remove soft deletes the single live record matching where by stamping
// its deletion fields in place. No snapshot is created; removal is the
// terminal state of the chain.
//
// When where carries an @rid equality the record is addressed directly
// and only @rid, liveness and an optional createdAt equality form the
// guard; any other conditions in where are not folded into it. Without
// an @rid the full condition set resolves the record first.
func (m *Manager) Remove(ctx context.Context, model *schema.Model, where map[string]query.Condition, user store.Record) (store.Record, error) {
	rid := comparisonString(where[store.FieldRID])
	createdAt, haveCreatedAt := comparisonValue(where[store.FieldCreatedAt])
	if rid == "" {
		current, err := m.selectOne(ctx, model, where)
		if err != nil {
			return nil, err
		}
		rid = current.RID()
		createdAt, haveCreatedAt = current[store.FieldCreatedAt], true
	}

	next := 0
	params := map[string]any{}
	stamp := map[string]any{
		store.FieldDeletedAt: m.nowMillis(),
	}
	if by := user.RID(); by != "" {
		stamp[store.FieldDeletedBy] = by
	}
	set := bindSet(stamp, params, &next)

	guard := fmt.Sprintf("%s = :%s AND %s IS NULL",
		store.FieldRID, bindParam(params, &next, rid), store.FieldDeletedAt)
	if haveCreatedAt {
		guard += fmt.Sprintf(" AND %s = :%s",
			store.FieldCreatedAt, bindParam(params, &next, createdAt))
	}
	text := fmt.Sprintf("UPDATE %s SET %s WHERE %s", model.Name, set, guard)

	m.logger.Debug("removing record", "class", model.Name, "rid", rid)
	records, err := m.engine.Execute(ctx, text, params, store.Options{})
	if err != nil {
		return nil, translate(err, text)
	}
	if len(records) == 0 {
		return nil, gkerr.NotFound("record %s was modified concurrently or no longer exists", rid)
	}
	return records[0], nil
}

// snapshotOf builds the deletion-stamped copy of a live record. The copy
// keeps the record's uuid, creation fields and prior history link but
// drops its identity: the engine assigns the snapshot its own @rid.
func (m *Manager) snapshotOf(current store.Record, user store.Record) map[string]any {
	snapshot := current.Clone()
	delete(snapshot, store.FieldRID)
	delete(snapshot, store.FieldClass)
	if prior := current.HistoryRID(); prior != "" {
		snapshot[store.FieldHistory] = prior
	} else {
		delete(snapshot, store.FieldHistory)
	}
	snapshot[store.FieldDeletedAt] = m.nowMillis()
	if by := user.RID(); by != "" {
		snapshot[store.FieldDeletedBy] = by
	}
	return snapshot
}

// liveGuard renders the predicate that must still hold for the in-place
// rewrite to apply; a vanished match aborts the transaction.
func (m *Manager) liveGuard(current store.Record, params map[string]any, next *int) string {
	guard := fmt.Sprintf("%s IS NULL", store.FieldDeletedAt)
	if createdAt, ok := current.CreatedAt(); ok {
		guard = fmt.Sprintf("%s = :%s AND %s",
			store.FieldCreatedAt, bindParam(params, next, createdAt), guard)
	}
	return guard
}

// fetchWithHistory reads a record back by identifier with its history
// chain expanded to the manager's bounded depth.
func (m *Manager) fetchWithHistory(ctx context.Context, model *schema.Model, rid string) (store.Record, error) {
	records, err := m.Select(ctx, model, map[string]query.Condition{
		store.FieldRID: query.NewComparison(rid),
	}, SelectOptions{
		Query:      query.Options{ActiveOnly: true},
		FetchDepth: m.historyDepth,
		ExactlyN:   ExactlyN(1),
	})
	if err != nil {
		return nil, err
	}
	return records[0], nil
}

// bindParam registers one value under the next parameter name.
func bindParam(params map[string]any, next *int, value any) string {
	name := fmt.Sprintf("%s%d", paramPrefix, *next)
	*next++
	params[name] = value
	return name
}

// comparisonString extracts a plain string equality value from a
// condition, or "".
func comparisonString(cond query.Condition) string {
	if v, ok := comparisonValue(cond); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// comparisonValue extracts the value of a plain equality comparison.
func comparisonValue(cond query.Condition) (any, bool) {
	cmp, ok := cond.(*query.Comparison)
	if !ok || cmp.Negate || cmp.Operator != query.OpEquals {
		return nil, false
	}
	return cmp.Value, true
}
