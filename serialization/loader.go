package serialization

import (
	"os"
	"path/filepath"
	"strings"

	"lama/ast"
	"lama/errors"
)

// LoadOptions controls how a unit document is turned into an ast.Unit.
type LoadOptions struct {
	// Validate checks the (patched) document against UnitSchema.
	Validate bool
	// Patch, when non-empty, is a JSON patch or merge patch applied before
	// validation.
	Patch []byte
	// Codecs selects formats by extension; the default registry when nil.
	Codecs *CodecRegistry
}

// LoadUnitFile reads, optionally patches and validates, and decodes the unit
// document at path. A document without a name is named after the file.
func LoadUnitFile(path string, opts LoadOptions) (*ast.Unit, error) {
	doc, err := ReadDocumentFile(path, opts)
	if err != nil {
		return nil, err
	}
	return DecodeUnit(doc, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

// LoadUnit is LoadUnitFile for document bytes already in memory.
func LoadUnit(data []byte, codec UnitCodec, name string, opts LoadOptions) (*ast.Unit, error) {
	doc, err := ReadDocument(data, codec, opts)
	if err != nil {
		return nil, err
	}
	return DecodeUnit(doc, name)
}

// ReadDocument decodes data and applies the patch and validation steps of
// opts, returning the generic document tree.
func ReadDocument(data []byte, codec UnitCodec, opts LoadOptions) (interface{}, error) {
	doc, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	if len(opts.Patch) > 0 {
		if doc, err = ApplyPatch(doc, opts.Patch); err != nil {
			return nil, err
		}
	}
	if opts.Validate {
		if err := ValidateDocument(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// ReadDocumentFile reads the document at path without decoding it to a unit.
func ReadDocumentFile(path string, opts LoadOptions) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, "UNIT_READ_FAILED", "cannot read unit file "+path).
			WithContext("path", path)
	}
	codecs := opts.Codecs
	if codecs == nil {
		codecs = NewDefaultCodecRegistry()
	}
	codec, err := codecs.CodecForPath(path)
	if err != nil {
		return nil, err
	}
	return ReadDocument(data, codec, opts)
}
