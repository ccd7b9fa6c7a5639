package serialization

import (
	"sort"
	"strings"

	"lama/errors"

	"github.com/wI2L/jsondiff"
)

// ChangeKind says how a function differs between two documents.
type ChangeKind string

const (
	FunctionAdded    ChangeKind = "added"
	FunctionRemoved  ChangeKind = "removed"
	FunctionModified ChangeKind = "modified"
)

// FunctionChange is one function whose definition differs.
type FunctionChange struct {
	Name       string
	Kind       ChangeKind
	Operations int
}

// DiffUnits compares two unit documents function by function. The result
// lists, sorted by name, the functions a registration of b would add or
// redefine relative to a.
func DiffUnits(a, b interface{}) ([]FunctionChange, error) {
	before, err := functionsByName(a)
	if err != nil {
		return nil, err
	}
	after, err := functionsByName(b)
	if err != nil {
		return nil, err
	}

	patch, err := jsondiff.Compare(before, after)
	if err != nil {
		return nil, errors.WrapError(err, "DIFF_FAILED", "cannot compare unit documents")
	}

	changes := make(map[string]*FunctionChange)
	for _, op := range patch {
		name, whole := functionOf(op.Path)
		if name == "" {
			continue
		}
		change, seen := changes[name]
		if !seen {
			change = &FunctionChange{Name: name, Kind: FunctionModified}
			changes[name] = change
		}
		change.Operations++
		if whole {
			switch op.Type {
			case jsondiff.OperationAdd:
				change.Kind = FunctionAdded
			case jsondiff.OperationRemove:
				change.Kind = FunctionRemoved
			}
		}
	}

	out := make([]FunctionChange, 0, len(changes))
	for _, c := range changes {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// functionsByName keys the function list of a document by name so that
// reordering functions is not reported as a change.
func functionsByName(doc interface{}) (map[string]interface{}, error) {
	root, ok := doc.(map[string]interface{})
	if !ok {
		return nil, errors.NewValidationError("INVALID_UNIT_DOCUMENT", "unit document must be an object")
	}
	out := make(map[string]interface{})
	list, _ := root["functions"].([]interface{})
	for _, item := range list {
		fn, ok := item.(map[string]interface{})
		if !ok {
			return nil, errors.NewValidationError("INVALID_UNIT_DOCUMENT", "function entry must be an object")
		}
		name, _ := fn["name"].(string)
		out[name] = fn
	}
	return out, nil
}

// functionOf extracts the function name from a JSON pointer into the
// by-name map, and reports whether the pointer addresses the whole function.
func functionOf(pointer string) (string, bool) {
	parts := strings.SplitN(strings.TrimPrefix(pointer, "/"), "/", 2)
	if parts[0] == "" {
		return "", false
	}
	name := strings.NewReplacer("~1", "/", "~0", "~").Replace(parts[0])
	return name, len(parts) == 1
}
