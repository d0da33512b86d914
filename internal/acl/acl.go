// Package acl gates operations on class-level permission bitmasks.
//
// A user's permission table maps class names to bitmasks. The check
// passes when the mask for the target class, or for any class it
// inherits from, intersects the required bits. A user with no
// permission table is denied everything.
package acl

import (
	"strings"

	"github.com/bcgsc/pori-graphkb-core/internal/schema"
	"github.com/bcgsc/pori-graphkb-core/internal/store"
)

// Bit is one permission in a class bitmask.
type Bit int

const (
	// Delete permits soft deletion.
	Delete Bit = 1 << iota

	// Update permits copy-on-write updates.
	Update

	// Read permits selection.
	Read

	// Create permits record creation.
	Create
)

// All grants every permission on a class.
const All = Create | Read | Update | Delete

// None is the empty mask.
const None Bit = 0

// Table is a class-to-bitmask permission map with lowercased keys.
type Table map[string]Bit

// TableOf extracts and merges a user's permission tables: the user's own
// "permissions" field plus the "permissions" of each record in "groups".
// Masks for the same class are OR-combined. Returns an empty table for a
// user with no permissions anywhere.
func TableOf(user store.Record) Table {
	table := Table{}
	merge(table, user["permissions"])
	if groups, ok := user["groups"].([]any); ok {
		for _, g := range groups {
			group, ok := g.(map[string]any)
			if !ok {
				continue
			}
			merge(table, group["permissions"])
		}
	}
	return table
}

// Check reports whether the user may perform an operation requiring the
// given bits on the model's class. The model's own mask is consulted
// first, then each inherited class in order.
func Check(user store.Record, model *schema.Model, required Bit) bool {
	return CheckTable(TableOf(user), model, required)
}

// CheckTable is Check against an already-extracted permission table.
func CheckTable(table Table, model *schema.Model, required Bit) bool {
	if len(table) == 0 {
		return false
	}
	if table[strings.ToLower(model.Name)]&required != 0 {
		return true
	}
	for _, name := range model.Inherits() {
		if table[strings.ToLower(name)]&required != 0 {
			return true
		}
	}
	return false
}

// merge folds one raw permissions value (a class-to-number map) into the
// table. Non-map values and non-numeric masks are ignored.
func merge(table Table, raw any) {
	perms, ok := raw.(map[string]any)
	if !ok {
		return
	}
	for class, mask := range perms {
		table[strings.ToLower(class)] |= maskValue(mask)
	}
}

func maskValue(v any) Bit {
	switch n := v.(type) {
	case int:
		return Bit(n)
	case int64:
		return Bit(n)
	case float64:
		return Bit(n)
	case Bit:
		return n
	default:
		return None
	}
}
