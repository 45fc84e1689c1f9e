// Package extract resolves dataset-derived parameter values. A schema
// parameter either encodes a field path in its origin, or names an
// extraction function registered by the caller; schema-supplied strings
// are never evaluated as code.
package extract

import (
	"fmt"
	"strings"
)

const (
	originPrefix = "dataset_jpath:"
	sourcePrefix = "_source."
)

// Func One extraction applied to a whole dataset
type Func func(dataset map[string]any) (any, error)

// Registry Named extraction functions referenced by schema parameters
type Registry struct {
	funcs map[string]Func
}

// NewRegistry Constructor
func NewRegistry() *Registry {
	return &Registry{funcs: map[string]Func{}}
}

// Register Adds a named extractor; later registrations overwrite earlier ones
func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Lookup Finds a registered extractor by name
func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// FieldPath The dot-separated dataset path encoded in a parameter origin
func FieldPath(origin string) string {
	path := strings.TrimPrefix(origin, originPrefix)
	return strings.TrimPrefix(path, sourcePrefix)
}

// Value Resolves a parameter origin against a dataset. The "_id" path
// maps to the dataset's "id" field; any other path is walked level by
// level.
func Value(origin string, dataset map[string]any) (any, error) {
	path := FieldPath(origin)
	if path == "_id" {
		id, ok := dataset["id"]
		if !ok {
			return nil, fmt.Errorf("dataset has no id field")
		}
		return id, nil
	}

	var current any = dataset
	for _, segment := range strings.Split(path, ".") {
		level, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("dataset path %q: segment %q is not an object", path, segment)
		}
		current, ok = level[segment]
		if !ok {
			return nil, fmt.Errorf("dataset path %q: missing field %q", path, segment)
		}
	}
	return current, nil
}
