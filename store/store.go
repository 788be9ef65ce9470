package store

import (
	"context"
	"errors"
)

// Collection names used across the application.
const (
	Slots    = "slots"
	Bookings = "bookings"
	Approved = "approvedStudents"
)

var (
	// ErrNotFound is returned when the requested document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned by ConditionalUpdate when the expected
	// fields no longer match the stored document.
	ErrConflict = errors.New("conditional update conflict")
	// ErrUnavailable wraps transient I/O failures talking to the backend.
	// Callers may retry; all other errors are terminal for the operation.
	ErrUnavailable = errors.New("store unavailable")
)

// Doc is a schemaless document as stored in a collection. Every stored
// document carries its own id under the "id" key.
type Doc map[string]any

// Store is the narrow document-store interface the booking core is built
// against. Production uses the MongoDB implementation in mongostore;
// tests use the in-memory one in memstore.
//
// ConditionalUpdate applies set to the document only if every field in
// expected still matches, as a single atomic step. A version counter
// carried in the document gives compare-and-swap semantics on top of it.
type Store interface {
	Get(ctx context.Context, collection, id string) (Doc, error)
	Put(ctx context.Context, collection, id string, doc Doc) error
	ConditionalUpdate(ctx context.Context, collection, id string, expected, set Doc) error
	Query(ctx context.Context, collection string, filter Doc) ([]Doc, error)
	Delete(ctx context.Context, collection, id string) error
	CreateWithGeneratedID(ctx context.Context, collection string, doc Doc) (string, error)
}

// Str reads a string field, tolerating absent keys.
func Str(d Doc, key string) string {
	s, _ := d[key].(string)
	return s
}

// Int reads a numeric field regardless of how the backend decoded it.
func Int(d Doc, key string) int {
	switch v := d[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Int64 reads a 64-bit numeric field, used for unix timestamps.
func Int64(d Doc, key string) int64 {
	switch v := d[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// Strs reads a string-array field. Mongo decodes arrays as []any, the
// memory store keeps []string; both are accepted.
func Strs(d Doc, key string) []string {
	switch v := d[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
