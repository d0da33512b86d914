package record

import (
	"context"
	"fmt"

	"github.com/bcgsc/pori-graphkb-core/internal/gkerr"
	"github.com/bcgsc/pori-graphkb-core/internal/schema"
	"github.com/bcgsc/pori-graphkb-core/internal/store"
)

// Create inserts a new record of the given class. The caller's content
// is cast and defaulted against the model; creation fields are stamped
// by the manager and cannot be supplied by the caller.
//
// For edge classes "out" and "in" are required and must be record
// identifiers; they become the edge endpoints rather than SET fields.
func (m *Manager) Create(ctx context.Context, model *schema.Model, content map[string]any, user store.Record) (store.Record, error) {
	for name := range content {
		if protectedFields[name] {
			return nil, gkerr.Attribute(name, "field is managed and cannot be set directly")
		}
	}

	var outRID, inRID string
	if model.IsEdge {
		var err error
		if outRID, err = endpoint(content, store.FieldOut); err != nil {
			return nil, err
		}
		if inRID, err = endpoint(content, store.FieldIn); err != nil {
			return nil, err
		}
		attrs := make(map[string]any, len(content))
		for k, v := range content {
			if k != store.FieldOut && k != store.FieldIn {
				attrs[k] = v
			}
		}
		content = attrs
	}

	formatted, err := model.FormatRecord(content, schema.FormatOptions{DropExtra: true, AddDefaults: true})
	if err != nil {
		return nil, err
	}
	stamped := m.stampNew(formatted, user)

	params := map[string]any{}
	next := 0
	set := bindSet(stamped, params, &next)

	var text string
	if model.IsEdge {
		text = fmt.Sprintf("CREATE EDGE %s FROM %s TO %s SET %s", model.Name, outRID, inRID, set)
	} else {
		text = fmt.Sprintf("CREATE VERTEX %s SET %s", model.Name, set)
	}

	m.logger.Debug("creating record", "class", model.Name, "edge", model.IsEdge)
	records, err := m.engine.Execute(ctx, text, params, store.Options{})
	if err != nil {
		return nil, translate(err, text)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("statement %q: engine returned no record", text)
	}
	return records[0], nil
}

// endpoint extracts a required edge endpoint identifier from content.
func endpoint(content map[string]any, field string) (string, error) {
	raw, ok := content[field]
	if !ok || raw == nil {
		return "", gkerr.Attribute(field, "edge endpoint is required")
	}
	rid, ok := raw.(string)
	if !ok || !store.ValidRID(rid) {
		return "", gkerr.Attribute(field, "expected a record identifier but found %v", raw)
	}
	return rid, nil
}
