package record

import (
	"context"

	"github.com/bcgsc/pori-graphkb-core/internal/gkerr"
	"github.com/bcgsc/pori-graphkb-core/internal/query"
	"github.com/bcgsc/pori-graphkb-core/internal/schema"
	"github.com/bcgsc/pori-graphkb-core/internal/store"
)

// SelectOptions controls statement construction and the result contract
// for Select.
type SelectOptions struct {
	// Query shapes the compiled statement (active filtering, pagination,
	// projection, traversals).
	Query query.Options

	// Limit caps the result set at the engine; zero means engine default.
	Limit int

	// FetchDepth expands linked records to the given depth.
	FetchDepth int

	// ExactlyN, when non-nil, enforces a result cardinality: a value of
	// zero permits an empty result, any other mismatch is an error.
	ExactlyN *int
}

// ExactlyN is a convenience for building the cardinality option.
func ExactlyN(n int) *int { return &n }

// Select compiles a query for the model and conditions, executes it and
// applies the cardinality contract from opts.
func (m *Manager) Select(ctx context.Context, model *schema.Model, conditions map[string]query.Condition, opts SelectOptions) ([]store.Record, error) {
	q, err := query.NewSelectionQuery(m.models, model, conditions, opts.Query)
	if err != nil {
		return nil, err
	}
	stmt, err := m.compiler.Compile(q)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("selecting records", "class", model.Name, "statement", stmt.Text)
	records, err := m.engine.Execute(ctx, stmt.Text, stmt.Params, store.Options{
		Limit:      opts.Limit,
		FetchDepth: opts.FetchDepth,
	})
	if err != nil {
		return nil, translate(err, stmt.Text)
	}

	if opts.ExactlyN != nil {
		want := *opts.ExactlyN
		switch {
		case len(records) == want:
			// contract satisfied, including the want == 0 case
		case len(records) == 0:
			return nil, gkerr.NotFound("expected %d %s records but found none", want, model.Name)
		default:
			return nil, gkerr.Ambiguous("expected %d %s records but found %d", want, model.Name, len(records))
		}
	}
	return records, nil
}

// selectOne resolves conditions to exactly one live record.
func (m *Manager) selectOne(ctx context.Context, model *schema.Model, conditions map[string]query.Condition) (store.Record, error) {
	records, err := m.Select(ctx, model, conditions, SelectOptions{
		Query:    query.Options{ActiveOnly: true},
		ExactlyN: ExactlyN(1),
	})
	if err != nil {
		return nil, err
	}
	return records[0], nil
}
