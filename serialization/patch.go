package serialization

import (
	"bytes"
	"encoding/json"

	"lama/errors"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// ApplyPatch overlays patch onto a generic document tree. A JSON array is
// applied as an RFC 6902 patch, an object as an RFC 7386 merge patch.
func ApplyPatch(doc interface{}, patch []byte) (interface{}, error) {
	original, err := json.Marshal(doc)
	if err != nil {
		return nil, NewSerializationError("json", "patch", err.Error()).Wrap(err)
	}

	var patched []byte
	trimmed := bytes.TrimSpace(patch)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		ops, err := jsonpatch.DecodePatch(trimmed)
		if err != nil {
			return nil, errors.NewValidationError("INVALID_PATCH", err.Error()).Wrap(err)
		}
		if patched, err = ops.Apply(original); err != nil {
			return nil, errors.NewValidationError("PATCH_FAILED", err.Error()).Wrap(err)
		}
	} else {
		if patched, err = jsonpatch.MergePatch(original, trimmed); err != nil {
			return nil, errors.NewValidationError("PATCH_FAILED", err.Error()).Wrap(err)
		}
	}

	return NewJSONCodec().Decode(patched)
}
