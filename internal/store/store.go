package store

import "context"

// Options tunes the execution of one compiled statement.
type Options struct {
	// Limit caps the number of returned records; zero means the engine
	// default.
	Limit int

	// FetchDepth is how many levels of linked records the engine expands
	// inline (neighbors, history chain).
	FetchDepth int
}

// Engine is the storage engine consumed by the core.
//
// Execute runs one parameterized statement. Tx opens a named multi-step
// transaction; its steps run atomically on Commit.
type Engine interface {
	Execute(ctx context.Context, statement string, params map[string]any, opts Options) ([]Record, error)

	Tx(name string) Tx
}

// Tx is a chained multi-step transaction builder.
//
// Each Let step runs a statement and binds its result under name for later
// steps to reference. Commit submits all steps atomically and returns the
// records of the step named ret. A failing step aborts the whole
// transaction; no partial state is left behind.
type Tx interface {
	Let(name, statement string, params map[string]any) Tx

	Commit(ctx context.Context, ret string) ([]Record, error)
}
