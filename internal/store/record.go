package store

import "regexp"

// ridShape matches the cluster:position form of a record identifier.
// Negative components occur for records created inside an open
// transaction.
var ridShape = regexp.MustCompile(`^#-?\d+:-?\d+$`)

// ValidRID reports whether s has the shape of a record identifier.
func ValidRID(s string) bool {
	return ridShape.MatchString(s)
}

// Record is one persisted entity: a property map plus the identity and
// version fields every record carries (@rid, uuid, createdAt/createdBy,
// deletedAt/deletedBy, history).
//
// The live record keeps a stable @rid across updates; each update prepends
// an immutable, deletion-stamped snapshot to the history chain. History
// values are either a record identifier (unexpanded) or a nested Record
// when the statement was executed with a fetch depth.
type Record map[string]any

// Identity and version field names.
const (
	FieldRID       = "@rid"
	FieldClass     = "@class"
	FieldUUID      = "uuid"
	FieldCreatedAt = "createdAt"
	FieldCreatedBy = "createdBy"
	FieldDeletedAt = "deletedAt"
	FieldDeletedBy = "deletedBy"
	FieldHistory   = "history"
	FieldOut       = "out"
	FieldIn        = "in"
)

// RID returns the record identifier, or "" when unset.
func (r Record) RID() string {
	s, _ := r[FieldRID].(string)
	return s
}

// Class returns the record's class name, or "".
func (r Record) Class() string {
	s, _ := r[FieldClass].(string)
	return s
}

// UUID returns the record's stable uuid, or "".
func (r Record) UUID() string {
	s, _ := r[FieldUUID].(string)
	return s
}

// CreatedAt returns the creation timestamp in epoch milliseconds.
func (r Record) CreatedAt() (int64, bool) {
	return r.int64Field(FieldCreatedAt)
}

// DeletedAt returns the deletion timestamp in epoch milliseconds.
// ok is false for live records.
func (r Record) DeletedAt() (int64, bool) {
	return r.int64Field(FieldDeletedAt)
}

// Deleted reports whether the record carries a deletion timestamp.
func (r Record) Deleted() bool {
	_, ok := r.DeletedAt()
	return ok
}

// History returns the prior snapshot when the engine expanded it inline,
// or nil when the chain was not fetched or the record has no history.
func (r Record) History() Record {
	switch h := r[FieldHistory].(type) {
	case Record:
		return h
	case map[string]any:
		return Record(h)
	default:
		return nil
	}
}

// HistoryRID returns the identifier of the prior snapshot whether or not
// it was expanded, or "".
func (r Record) HistoryRID() string {
	switch h := r[FieldHistory].(type) {
	case string:
		return h
	case Record:
		return h.RID()
	case map[string]any:
		return Record(h).RID()
	default:
		return ""
	}
}

// Clone returns a shallow copy of the record's property map.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (r Record) int64Field(name string) (int64, bool) {
	switch v := r[name].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
