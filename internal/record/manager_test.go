package record

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcgsc/pori-graphkb-core/internal/gkerr"
	"github.com/bcgsc/pori-graphkb-core/internal/query"
	"github.com/bcgsc/pori-graphkb-core/internal/schema"
	"github.com/bcgsc/pori-graphkb-core/internal/store"
	"github.com/bcgsc/pori-graphkb-core/internal/testutil"
)

func testModels(t *testing.T) schema.Set {
	t.Helper()
	set, err := schema.Load([]byte(`
models:
  V:
    properties:
      uuid: {type: string}
      createdAt: {type: long}
      createdBy: {type: link, linkedClass: User}
      deletedAt: {type: long}
      deletedBy: {type: link, linkedClass: User}
      history: {type: link}
  User:
    inherits: [V]
    properties:
      name: {type: string}
  Source:
    inherits: [V]
    properties:
      name: {type: string, cast: trimLower}
  Disease:
    inherits: [V]
    properties:
      name: {type: string, cast: trimLower}
      sourceId: {type: string, cast: trimLower}
      source: {type: link, linkedClass: Source}
  AliasOf:
    isEdge: true
    properties:
      uuid: {type: string}
      createdAt: {type: long}
      deletedAt: {type: long}
`))
	require.NoError(t, err)
	return set
}

func testManager(t *testing.T) (*Manager, *testutil.FakeEngine, *testutil.FixedClock) {
	t.Helper()
	engine := testutil.NewFakeEngine()
	clock := testutil.NewFixedClock(1690000000000)
	m := NewManager(engine, testModels(t), WithClock(clock.NowMillis), WithHistoryDepth(2))
	return m, engine, clock
}

func mustModel(t *testing.T, m *Manager, name string) *schema.Model {
	t.Helper()
	model, ok := m.models.Get(name)
	require.True(t, ok)
	return model
}

var testUser = store.Record{
	store.FieldRID:   "#15:0",
	store.FieldClass: "User",
	"name":           "alice",
}

func TestCreate_Vertex(t *testing.T) {
	m, engine, clock := testManager(t)
	disease := mustModel(t, m, "Disease")
	engine.QueueResult(engine.NewRecord("Disease", map[string]any{"name": "melanoma"}))

	created, err := m.Create(context.Background(), disease, map[string]any{
		"name":  "  Melanoma ",
		"extra": "dropped",
	}, testUser)
	require.NoError(t, err)
	assert.Equal(t, "Disease", created.Class())

	require.Len(t, engine.Executed, 1)
	call := engine.Executed[0]
	assert.Equal(t,
		"CREATE VERTEX Disease SET createdAt = :param0, createdBy = :param1, name = :param2, uuid = :param3",
		call.Statement)
	assert.Equal(t, clock.Current(), call.Params["param0"])
	assert.Equal(t, "#15:0", call.Params["param1"])
	assert.Equal(t, "melanoma", call.Params["param2"])
	assert.NotEmpty(t, call.Params["param3"])
}

func TestCreate_RejectsManagedFields(t *testing.T) {
	m, _, _ := testManager(t)
	disease := mustModel(t, m, "Disease")

	_, err := m.Create(context.Background(), disease, map[string]any{
		"name": "melanoma",
		"uuid": "forged",
	}, testUser)
	assert.True(t, gkerr.IsAttribute(err))
}

func TestCreate_Edge(t *testing.T) {
	m, engine, _ := testManager(t)
	alias := mustModel(t, m, "AliasOf")
	engine.QueueResult(engine.NewRecord("AliasOf", nil))

	_, err := m.Create(context.Background(), alias, map[string]any{
		"out": "#3:1",
		"in":  "#3:2",
	}, testUser)
	require.NoError(t, err)

	require.Len(t, engine.Executed, 1)
	stmt := engine.Executed[0].Statement
	assert.Contains(t, stmt, "CREATE EDGE AliasOf FROM #3:1 TO #3:2 SET ")
	assert.NotContains(t, stmt, "out =")
	assert.NotContains(t, stmt, "in =")
}

func TestCreate_EdgeRequiresEndpoints(t *testing.T) {
	m, _, _ := testManager(t)
	alias := mustModel(t, m, "AliasOf")

	_, err := m.Create(context.Background(), alias, map[string]any{"out": "#3:1"}, testUser)
	assert.True(t, gkerr.IsAttribute(err))

	_, err = m.Create(context.Background(), alias, map[string]any{
		"out": "#3:1",
		"in":  "not-a-rid",
	}, testUser)
	assert.True(t, gkerr.IsAttribute(err))
}

func TestSelect_ExactlyNContract(t *testing.T) {
	m, engine, _ := testManager(t)
	disease := mustModel(t, m, "Disease")
	conditions := map[string]query.Condition{"name": query.NewComparison("melanoma")}

	engine.QueueResult()
	records, err := m.Select(context.Background(), disease, conditions, SelectOptions{
		Query:    query.DefaultOptions(),
		ExactlyN: ExactlyN(0),
	})
	require.NoError(t, err)
	assert.Empty(t, records)

	engine.QueueResult()
	_, err = m.Select(context.Background(), disease, conditions, SelectOptions{
		Query:    query.DefaultOptions(),
		ExactlyN: ExactlyN(1),
	})
	assert.True(t, gkerr.IsNotFound(err))

	engine.QueueResult(
		engine.NewRecord("Disease", nil),
		engine.NewRecord("Disease", nil),
	)
	_, err = m.Select(context.Background(), disease, conditions, SelectOptions{
		Query:    query.DefaultOptions(),
		ExactlyN: ExactlyN(1),
	})
	assert.True(t, gkerr.IsAmbiguous(err))
}

func TestSelect_PassesLimitAndFetchDepth(t *testing.T) {
	m, engine, _ := testManager(t)
	disease := mustModel(t, m, "Disease")
	engine.QueueResult()

	_, err := m.Select(context.Background(), disease, map[string]query.Condition{
		"name": query.NewComparison("melanoma"),
	}, SelectOptions{Query: query.DefaultOptions(), Limit: 50, FetchDepth: 3})
	require.NoError(t, err)

	require.Len(t, engine.Executed, 1)
	assert.Equal(t, store.Options{Limit: 50, FetchDepth: 3}, engine.Executed[0].Opts)
}

func TestSelect_TranslatesEngineErrors(t *testing.T) {
	m, engine, _ := testManager(t)
	disease := mustModel(t, m, "Disease")
	conditions := map[string]query.Condition{"name": query.NewComparison("melanoma")}

	engine.QueueError(&store.EngineError{Category: store.CategoryDuplicate, Message: "dup"})
	_, err := m.Select(context.Background(), disease, conditions, SelectOptions{Query: query.DefaultOptions()})
	assert.True(t, gkerr.IsExists(err))

	engine.QueueError(&store.EngineError{Category: store.CategoryNotFound, Message: "gone"})
	_, err = m.Select(context.Background(), disease, conditions, SelectOptions{Query: query.DefaultOptions()})
	assert.True(t, gkerr.IsNotFound(err))

	engine.QueueError(errors.New("connection reset"))
	_, err = m.Select(context.Background(), disease, conditions, SelectOptions{Query: query.DefaultOptions()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SELECT * FROM Disease")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestUpdate_SnapshotAndRewrite(t *testing.T) {
	m, engine, clock := testManager(t)
	disease := mustModel(t, m, "Disease")

	current := store.Record{
		store.FieldRID:       "#14:9",
		store.FieldClass:     "Disease",
		store.FieldUUID:      "aaaa-bbbb",
		store.FieldCreatedAt: int64(1000),
		store.FieldCreatedBy: "#15:0",
		"name":               "melanoma",
	}
	engine.QueueResult(current)                                // selectOne
	engine.QueueResult(engine.NewRecord("Disease", nil))       // tx commit
	updated := current.Clone()
	updated["name"] = "malignant melanoma"
	engine.QueueResult(updated) // refetch with history

	got, err := m.Update(context.Background(), disease, map[string]query.Condition{
		"name": query.NewComparison("melanoma"),
	}, map[string]any{"name": "Malignant Melanoma"}, testUser)
	require.NoError(t, err)
	assert.Equal(t, "malignant melanoma", got["name"])

	require.Len(t, engine.Txs, 1)
	tx := engine.Txs[0]
	assert.Equal(t, "updated", tx.Return)
	require.Len(t, tx.Steps, 2)

	snap := tx.Steps[0]
	assert.Equal(t, "snapshot", snap.Name)
	assert.Equal(t,
		"CREATE VERTEX Disease SET createdAt = :param0, createdBy = :param1, deletedAt = :param2, deletedBy = :param3, name = :param4, uuid = :param5",
		snap.Statement)
	assert.Equal(t, int64(1000), snap.Params["param0"])
	assert.Equal(t, clock.Current(), snap.Params["param2"])
	assert.Equal(t, "#15:0", snap.Params["param3"])
	assert.Equal(t, "melanoma", snap.Params["param4"])
	assert.Equal(t, "aaaa-bbbb", snap.Params["param5"])

	upd := tx.Steps[1]
	assert.Equal(t, "updated", upd.Name)
	assert.Equal(t,
		"UPDATE #14:9 SET name = :param6, history = $snapshot WHERE createdAt = :param7 AND deletedAt IS NULL",
		upd.Statement)
	assert.Equal(t, "malignant melanoma", upd.Params["param6"])
	assert.Equal(t, int64(1000), upd.Params["param7"])

	// the post-commit read expands the history chain
	refetch := engine.Executed[len(engine.Executed)-1]
	assert.Equal(t, 2, refetch.Opts.FetchDepth)
	assert.Contains(t, refetch.Statement, "@rid = :param0")
}

func TestUpdate_EmptyChangeSetFails(t *testing.T) {
	m, engine, _ := testManager(t)
	disease := mustModel(t, m, "Disease")
	current := store.Record{
		store.FieldRID:       "#14:9",
		store.FieldClass:     "Disease",
		store.FieldCreatedAt: int64(1000),
		"name":               "melanoma",
	}

	// nothing to apply at all
	engine.QueueResult(current)
	_, err := m.Update(context.Background(), disease, map[string]query.Condition{
		"name": query.NewComparison("melanoma"),
	}, map[string]any{}, testUser)
	assert.True(t, gkerr.IsAttribute(err))
	assert.Empty(t, engine.Txs)

	// undeclared fields are dropped by formatting, leaving nothing
	engine.QueueResult(current)
	_, err = m.Update(context.Background(), disease, map[string]query.Condition{
		"name": query.NewComparison("melanoma"),
	}, map[string]any{"bogus": 1}, testUser)
	assert.True(t, gkerr.IsAttribute(err))
	assert.Empty(t, engine.Txs)
}

func TestUpdate_RejectsManagedFields(t *testing.T) {
	m, _, _ := testManager(t)
	disease := mustModel(t, m, "Disease")

	_, err := m.Update(context.Background(), disease, map[string]query.Condition{
		"name": query.NewComparison("melanoma"),
	}, map[string]any{"history": "#9:9"}, testUser)
	assert.True(t, gkerr.IsAttribute(err))
}

func TestUpdate_AmbiguousMatchFails(t *testing.T) {
	m, engine, _ := testManager(t)
	disease := mustModel(t, m, "Disease")
	engine.QueueResult(
		engine.NewRecord("Disease", nil),
		engine.NewRecord("Disease", nil),
	)

	_, err := m.Update(context.Background(), disease, map[string]query.Condition{
		"name": query.NewComparison("melanoma"),
	}, map[string]any{"name": "other"}, testUser)
	assert.True(t, gkerr.IsAmbiguous(err))
	assert.Empty(t, engine.Txs)
}

func TestRemove_ResolvesIdentifierFirst(t *testing.T) {
	m, engine, clock := testManager(t)
	disease := mustModel(t, m, "Disease")

	current := store.Record{
		store.FieldRID:       "#14:3",
		store.FieldClass:     "Disease",
		store.FieldCreatedAt: int64(500),
		"name":               "melanoma",
	}
	engine.QueueResult(current)
	removed := current.Clone()
	removed[store.FieldDeletedAt] = clock.Current() + 1
	engine.QueueResult(removed)

	got, err := m.Remove(context.Background(), disease, map[string]query.Condition{
		"name": query.NewComparison("melanoma"),
	}, testUser)
	require.NoError(t, err)
	assert.True(t, got.Deleted())

	// removal is terminal: no snapshot transaction, only the in-place stamp
	assert.Empty(t, engine.Txs)
	require.Len(t, engine.Executed, 2)
	call := engine.Executed[1]
	assert.Equal(t,
		"UPDATE Disease SET deletedAt = :param0, deletedBy = :param1 WHERE @rid = :param2 AND deletedAt IS NULL AND createdAt = :param3",
		call.Statement)
	assert.Equal(t, "#15:0", call.Params["param1"])
	assert.Equal(t, "#14:3", call.Params["param2"])
	assert.Equal(t, int64(500), call.Params["param3"])
}

func TestRemove_WithIdentifierSkipsSelect(t *testing.T) {
	m, engine, _ := testManager(t)
	disease := mustModel(t, m, "Disease")
	engine.QueueResult(engine.NewRecord("Disease", map[string]any{
		store.FieldDeletedAt: int64(1),
	}))

	_, err := m.Remove(context.Background(), disease, map[string]query.Condition{
		store.FieldRID: query.NewComparison("#14:3"),
	}, testUser)
	require.NoError(t, err)

	require.Len(t, engine.Executed, 1)
	call := engine.Executed[0]
	assert.Equal(t,
		"UPDATE Disease SET deletedAt = :param0, deletedBy = :param1 WHERE @rid = :param2 AND deletedAt IS NULL",
		call.Statement)
}

func TestRemove_ConcurrentModification(t *testing.T) {
	m, engine, _ := testManager(t)
	disease := mustModel(t, m, "Disease")
	engine.QueueResult() // guard no longer matches

	_, err := m.Remove(context.Background(), disease, map[string]query.Condition{
		store.FieldRID: query.NewComparison("#14:3"),
	}, testUser)
	assert.True(t, gkerr.IsNotFound(err))
}
