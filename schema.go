package eventproc

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is returned when a required field is absent.
	ErrMissingField = errors.New("missing field")

	// ErrFieldType is returned when a field holds a value of the wrong type.
	ErrFieldType = errors.New("invalid type")

	// ErrDuplicateField is returned when an object repeats a field.
	ErrDuplicateField = errors.New("duplicate field")
)

// Rule checks one structural property of an inspected message. Rules are
// cheap to evaluate and run before any field is read into an Event.
type Rule interface {
	Check(v View) error
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc func(v View) error

// Check implements Rule.
func (f RuleFunc) Check(v View) error { return f(v) }

// IsObject returns a Rule that passes when the root value is a JSON object.
func IsObject() Rule {
	return RuleFunc(func(v View) error {
		if t := v.Type(""); t != TypeObject {
			return fmt.Errorf("%w: expected object, found %s", ErrFieldType, t)
		}
		return nil
	})
}

// Required returns a Rule that passes when path exists and, if any types are
// given, holds one of them.
func Required(path string, types ...FieldType) Rule {
	return required{path: path, types: types}
}

type required struct {
	path  string
	types []FieldType
}

func (r required) Check(v View) error {
	got := v.Type(r.path)
	if got == TypeMissing {
		return fmt.Errorf("%w `%s`", ErrMissingField, r.path)
	}
	if len(r.types) == 0 {
		return nil
	}
	for _, t := range r.types {
		if got == t {
			return nil
		}
	}
	return fmt.Errorf("%w: field `%s` expected %s, found %s", ErrFieldType, r.path, r.types[0], got)
}

// Unique returns a Rule that fails when the root object carries any of the
// named fields more than once. Key matching is exact; other keys may repeat.
func Unique(fields ...string) Rule {
	return RuleFunc(func(v View) error {
		seen := make(map[string]bool, len(fields))
		for _, f := range fields {
			seen[f] = false
		}
		for _, key := range v.Keys("") {
			dup, tracked := seen[key]
			if !tracked {
				continue
			}
			if dup {
				return fmt.Errorf("%w `%s`", ErrDuplicateField, key)
			}
			seen[key] = true
		}
		return nil
	})
}

// All returns a Rule that passes when every rule passes. The first failure
// is returned.
func All(rules ...Rule) Rule {
	return all{rules: rules}
}

type all struct {
	rules []Rule
}

func (a all) Check(v View) error {
	for _, r := range a.rules {
		if err := r.Check(v); err != nil {
			return err
		}
	}
	return nil
}

// envelopeFields are the keys Decode reads. Keys are case-sensitive and any
// other key is ignored.
var envelopeFields = []string{"name", "version", "id", "flowId", "payload", "identity", "auth", "metadata"}

// envelopeShape lists every field an inbound event must carry. The opaque
// fields accept any JSON value, including null.
var envelopeShape = All(
	IsObject(),
	Unique(envelopeFields...),
	Required("name", TypeString),
	Required("version", TypeNumber),
	Required("id", TypeString),
	Required("flowId", TypeString),
	Required("payload"),
	Required("identity"),
	Required("auth"),
	Required("metadata"),
)
