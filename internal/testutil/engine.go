// Package testutil provides shared test doubles: a deterministic clock
// and a scripted storage engine.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/bcgsc/pori-graphkb-core/internal/store"
)

// ExecutedCall records one Execute invocation against the fake engine.
type ExecutedCall struct {
	Statement string
	Params    map[string]any
	Opts      store.Options
}

// TxCall records one committed transaction: its Let steps in order and
// the name of the returned step.
type TxCall struct {
	Name   string
	Steps  []TxStep
	Return string
}

// TxStep is one Let step of a recorded transaction.
type TxStep struct {
	Name      string
	Statement string
	Params    map[string]any
}

// scripted is one queued response: records or an error.
type scripted struct {
	records []store.Record
	err     error
}

// FakeEngine is a scripted store.Engine. Responses are queued with
// QueueResult/QueueError and consumed in order by Execute and Tx.Commit;
// every call is recorded for assertion.
//
// An unqueued call fails loudly rather than returning an empty result, so
// tests cannot silently drift from the statements the core issues.
type FakeEngine struct {
	mu       sync.Mutex
	queue    []scripted
	Executed []ExecutedCall
	Txs      []TxCall

	ridSeq int
}

// NewFakeEngine creates an empty scripted engine.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{}
}

// QueueResult queues records as the next response.
func (e *FakeEngine) QueueResult(records ...store.Record) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue = append(e.queue, scripted{records: records})
}

// QueueError queues an error as the next response.
func (e *FakeEngine) QueueError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue = append(e.queue, scripted{err: err})
}

// Execute implements store.Engine.
func (e *FakeEngine) Execute(_ context.Context, statement string, params map[string]any, opts store.Options) ([]store.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Executed = append(e.Executed, ExecutedCall{Statement: statement, Params: params, Opts: opts})
	return e.pop(statement)
}

// Tx implements store.Engine.
func (e *FakeEngine) Tx(name string) store.Tx {
	return &fakeTx{engine: e, call: TxCall{Name: name}}
}

func (e *FakeEngine) pop(statement string) ([]store.Record, error) {
	if len(e.queue) == 0 {
		return nil, fmt.Errorf("no scripted response for statement: %s", statement)
	}
	next := e.queue[0]
	e.queue = e.queue[1:]
	return next.records, next.err
}

// NewRecord builds a record with a store-assigned identity (@rid, uuid)
// plus the given class and properties.
func (e *FakeEngine) NewRecord(class string, props map[string]any) store.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ridSeq++
	rec := store.Record{
		store.FieldRID:   fmt.Sprintf("#14:%d", e.ridSeq),
		store.FieldClass: class,
		store.FieldUUID:  uuid.NewString(),
	}
	for k, v := range props {
		rec[k] = v
	}
	return rec
}

type fakeTx struct {
	engine *FakeEngine
	call   TxCall
}

func (t *fakeTx) Let(name, statement string, params map[string]any) store.Tx {
	t.call.Steps = append(t.call.Steps, TxStep{Name: name, Statement: statement, Params: params})
	return t
}

func (t *fakeTx) Commit(_ context.Context, ret string) ([]store.Record, error) {
	t.engine.mu.Lock()
	defer t.engine.mu.Unlock()
	t.call.Return = ret
	t.engine.Txs = append(t.engine.Txs, t.call)
	return t.engine.pop("tx:" + t.call.Name)
}
