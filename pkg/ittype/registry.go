package ittype

import "sync"

// RecordRegistry is the process-local map from record id to schema
// that every ModuleInstance sharing a Service registers into and
// resolves against. Registration is idempotent for an identical
// schema and rejected for a conflicting one; Resolve never mutates;
// GC drops every id not named in the supplied live set.
type RecordRegistry struct {
	mu      sync.RWMutex
	schemas map[uint64]RecordSchema
}

// NewRecordRegistry returns an empty registry.
func NewRecordRegistry() *RecordRegistry {
	return &RecordRegistry{schemas: make(map[uint64]RecordSchema)}
}

// Register adds schema under id, or validates that an existing
// registration under id is structurally identical. A schema with no
// fields is always rejected.
func (r *RecordRegistry) Register(id uint64, schema RecordSchema) error {
	if len(schema.Fields) == 0 {
		return &EmptyRecordError{Name: schema.Name}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.schemas[id]
	if !ok {
		r.schemas[id] = schema
		return nil
	}
	if !r.schemasEqualLocked(existing, schema, make(map[uint64]bool)) {
		return &RecordConflictError{ID: id, Existing: existing, New: schema}
	}
	return nil
}

// Remove drops id's registration unconditionally. Used only to roll
// back a partially-applied module load whose registration of several
// record ids failed partway through.
func (r *RecordRegistry) Remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.schemas, id)
}

// Resolve returns the schema registered under id.
func (r *RecordRegistry) Resolve(id uint64) (RecordSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schema, ok := r.schemas[id]
	if !ok {
		return RecordSchema{}, &UnknownRecordError{ID: id}
	}
	return schema, nil
}

// GC removes every registered id absent from live, returning the
// number of entries removed. Service.UnloadModule computes live from
// the set of record ids still reachable from every other loaded
// module's signatures before calling GC, so a shared record used by
// two modules survives until the last one unloads.
func (r *RecordRegistry) GC(live map[uint64]struct{}) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id := range r.schemas {
		if _, keep := live[id]; !keep {
			delete(r.schemas, id)
			removed++
		}
	}
	return removed
}

// schemasEqualLocked compares two schemas structurally, including
// through nested Record(id) references. visited guards against
// infinite recursion for self-referential or mutually-referential
// record graphs: once a pair of ids has been assumed equal for the
// purpose of resolving a cycle, it is not re-descended.
func (r *RecordRegistry) schemasEqualLocked(a, b RecordSchema, visited map[uint64]bool) bool {
	if a.Name != b.Name || len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i].Name != b.Fields[i].Name {
			return false
		}
		if !r.typesEqualLocked(a.Fields[i].Type, b.Fields[i].Type, visited) {
			return false
		}
	}
	return true
}

func (r *RecordRegistry) typesEqualLocked(a, b IType, visited map[uint64]bool) bool {
	switch at := a.(type) {
	case Array:
		bt, ok := b.(Array)
		if !ok {
			return false
		}
		return r.typesEqualLocked(at.Element, bt.Element, visited)
	case Record:
		bt, ok := b.(Record)
		if !ok || at.ID != bt.ID {
			return false
		}
		if visited[at.ID] {
			return true
		}
		visited[at.ID] = true
		sa, aok := r.schemas[at.ID]
		sb, bok := r.schemas[bt.ID]
		if !aok || !bok {
			// Not yet registered (still being constructed by the
			// caller's in-progress Register call): ids matching is
			// the best we can check.
			return true
		}
		return r.schemasEqualLocked(sa, sb, visited)
	default:
		return sameScalarKind(a, b)
	}
}

func sameScalarKind(a, b IType) bool {
	switch a.(type) {
	case Boolean:
		_, ok := b.(Boolean)
		return ok
	case S8:
		_, ok := b.(S8)
		return ok
	case S16:
		_, ok := b.(S16)
		return ok
	case S32:
		_, ok := b.(S32)
		return ok
	case S64:
		_, ok := b.(S64)
		return ok
	case U8:
		_, ok := b.(U8)
		return ok
	case U16:
		_, ok := b.(U16)
		return ok
	case U32:
		_, ok := b.(U32)
		return ok
	case U64:
		_, ok := b.(U64)
		return ok
	case I32:
		_, ok := b.(I32)
		return ok
	case I64:
		_, ok := b.(I64)
		return ok
	case F32:
		_, ok := b.(F32)
		return ok
	case F64:
		_, ok := b.(F64)
		return ok
	case String:
		_, ok := b.(String)
		return ok
	case ByteArray:
		_, ok := b.(ByteArray)
		return ok
	default:
		return false
	}
}
