package ittype

import "fmt"

// RecordConflictError is returned when a record id is registered twice
// with structurally different schemas.
type RecordConflictError struct {
	ID       uint64
	Existing RecordSchema
	New      RecordSchema
}

func (e *RecordConflictError) Error() string {
	return fmt.Sprintf("record %d already registered with a different schema: have %q, got %q",
		e.ID, e.Existing.Name, e.New.Name)
}

// UnknownRecordError is returned when a Record{ID} is resolved against
// a registry that has never seen that id.
type UnknownRecordError struct {
	ID uint64
}

func (e *UnknownRecordError) Error() string {
	return fmt.Sprintf("unknown record id %d", e.ID)
}

// EmptyRecordError is returned when registering a schema with no
// fields: such a record has no wire representation.
type EmptyRecordError struct {
	Name string
}

func (e *EmptyRecordError) Error() string {
	return fmt.Sprintf("record %q has no fields", e.Name)
}
