// Package schedule holds the schedule entry model and the in-memory
// operations over an ordered collection of entries: validation, listing
// with filters, search, and positional add/edit/delete.
//
// Ids are positions. An entry's id is its zero-based index in the
// collection at the moment it is queried; nothing is persisted inside the
// entry itself, so deleting id k shifts every later entry down by one.
// Callers holding ids from an earlier listing must re-list after a delete.
package schedule
