package eventproc

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when the input is not valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// FieldType is the JSON type of a value found in a View.
type FieldType int

// Field types reported by View.Type.
const (
	TypeMissing FieldType = iota
	TypeNull
	TypeBool
	TypeNumber
	TypeString
	TypeArray
	TypeObject
)

func (t FieldType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	default:
		return "missing"
	}
}

// Inspector examines raw bytes and returns a View for field queries.
type Inspector interface {
	Inspect(raw []byte) (View, error)
}

// View provides read-only field access over an inspected message.
type View interface {
	// HasField returns true if the path exists in the message.
	HasField(path string) bool

	// Type returns the JSON type at path. The empty path addresses the
	// root value.
	Type(path string) FieldType

	// GetString returns the string value at path, or false if not found
	// or not a string.
	GetString(path string) (string, bool)

	// GetBytes returns the raw bytes at path, or false if not found.
	// For JSON, this returns the raw JSON value (including quotes for strings).
	GetBytes(path string) ([]byte, bool)

	// Keys returns the keys of the object at path in document order,
	// duplicates included. It returns nil when path is not an object.
	Keys(path string) []string
}

// JSONInspector returns an Inspector that uses gjson for field access.
func JSONInspector() Inspector {
	return jsonInspector{}
}

type jsonInspector struct{}

func (jsonInspector) Inspect(raw []byte) (View, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	return jsonView{raw: raw}, nil
}

type jsonView struct {
	raw []byte
}

func (v jsonView) get(path string) gjson.Result {
	if path == "" {
		return gjson.ParseBytes(v.raw)
	}
	return gjson.GetBytes(v.raw, path)
}

func (v jsonView) HasField(path string) bool {
	return v.get(path).Exists()
}

func (v jsonView) Type(path string) FieldType {
	r := v.get(path)
	if !r.Exists() {
		return TypeMissing
	}
	switch r.Type {
	case gjson.Null:
		return TypeNull
	case gjson.True, gjson.False:
		return TypeBool
	case gjson.Number:
		return TypeNumber
	case gjson.String:
		return TypeString
	}
	if r.IsArray() {
		return TypeArray
	}
	return TypeObject
}

func (v jsonView) GetString(path string) (string, bool) {
	r := v.get(path)
	if !r.Exists() {
		return "", false
	}
	if r.Type != gjson.String {
		return "", false
	}
	return r.String(), true
}

func (v jsonView) GetBytes(path string) ([]byte, bool) {
	r := v.get(path)
	if !r.Exists() {
		return nil, false
	}
	return []byte(r.Raw), true
}

func (v jsonView) Keys(path string) []string {
	r := v.get(path)
	if !r.IsObject() {
		return nil
	}
	var keys []string
	r.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}
