// Package record executes mutations against the backing engine: create,
// select with a result-cardinality contract, copy-on-write update and
// terminal soft delete.
//
// Updates never rewrite history in place. Each update creates an
// immutable, deletion-stamped snapshot of the current state and links it
// behind the live record, so the chain grows backward while the live
// identity never changes. Removal is terminal: it stamps the deletion
// fields and creates no snapshot.
//
// Atomicity is delegated to the engine's transaction primitive; the
// manager issues the steps and implements no additional locking.
package record

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bcgsc/pori-graphkb-core/internal/gkerr"
	"github.com/bcgsc/pori-graphkb-core/internal/querysql"
	"github.com/bcgsc/pori-graphkb-core/internal/schema"
	"github.com/bcgsc/pori-graphkb-core/internal/store"
)

// paramPrefix names bound parameters in mutation statements, matching
// the compiler's placeholder convention.
const paramPrefix = querysql.DefaultParamPrefix

// Manager runs mutations for one engine/model-set pair.
type Manager struct {
	engine   store.Engine
	models   schema.Set
	compiler *querysql.Compiler
	logger   *slog.Logger

	// nowMillis supplies timestamps; injectable for tests.
	nowMillis func() int64

	// historyDepth bounds how many history links are expanded when an
	// updated record is fetched back.
	historyDepth int
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the timestamp source (epoch milliseconds).
func WithClock(now func() int64) Option {
	return func(m *Manager) { m.nowMillis = now }
}

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithHistoryDepth bounds history-chain expansion on update results.
func WithHistoryDepth(depth int) Option {
	return func(m *Manager) { m.historyDepth = depth }
}

// NewManager creates a mutation manager.
func NewManager(engine store.Engine, models schema.Set, opts ...Option) *Manager {
	m := &Manager{
		engine:       engine,
		models:       models,
		compiler:     querysql.NewCompiler(models),
		logger:       slog.Default(),
		nowMillis:    func() int64 { return time.Now().UnixMilli() },
		historyDepth: 3,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// protectedFields cannot be set through caller-supplied content; they are
// owned by the versioning machinery.
var protectedFields = map[string]bool{
	store.FieldRID:       true,
	store.FieldClass:     true,
	store.FieldUUID:      true,
	store.FieldCreatedAt: true,
	store.FieldCreatedBy: true,
	store.FieldDeletedAt: true,
	store.FieldDeletedBy: true,
	store.FieldHistory:   true,
}

// translate rewraps recognized engine error categories into the project
// taxonomy; anything else passes through annotated with the statement.
func translate(err error, statement string) error {
	switch store.CategoryOf(err) {
	case store.CategoryDuplicate:
		return gkerr.Exists(err, "record already exists")
	case store.CategoryNotFound:
		return gkerr.NotFound("%v", err)
	default:
		return fmt.Errorf("statement %q: %w", statement, err)
	}
}

// bindSet renders a SET clause over sorted field names, binding each
// value into params with the shared counter semantics of the compiler.
func bindSet(fields map[string]any, params map[string]any, next *int) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	clause := ""
	for i, name := range names {
		pname := fmt.Sprintf("%s%d", paramPrefix, *next)
		*next++
		params[pname] = fields[name]
		if i > 0 {
			clause += ", "
		}
		clause += fmt.Sprintf("%s = :%s", name, pname)
	}
	return clause
}

// stampNew fills the creation fields of a new record or snapshot.
func (m *Manager) stampNew(content map[string]any, user store.Record) map[string]any {
	out := make(map[string]any, len(content)+3)
	for k, v := range content {
		out[k] = v
	}
	out[store.FieldUUID] = uuid.NewString()
	out[store.FieldCreatedAt] = m.nowMillis()
	if rid := user.RID(); rid != "" {
		out[store.FieldCreatedBy] = rid
	}
	return out
}
