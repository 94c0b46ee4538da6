package shape

import (
	"fmt"
	"log/slog"

	"github.com/jorgelunams/contratospoc/internal/common"
)

// StructureError reports a value that could not be coerced into an object.
type StructureError struct {
	Label string
	Got   Kind
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s: expected object, got %s", e.Label, e.Got)
}

func (e *StructureError) Is(target error) bool { return target == common.ErrStructure }

// AsObject returns v as an object. A sequence whose first element is an
// object is unwrapped with a warning; every other shape is a StructureError.
func AsObject(v Value, label string, logger *slog.Logger) (*Object, error) {
	switch v.kind {
	case KindObject:
		return v.obj, nil
	case KindSequence:
		if len(v.seq) > 0 && v.seq[0].kind == KindObject {
			if logger == nil {
				logger = slog.Default()
			}
			logger.Warn("shape.coerce.sequence_to_object", "label", label, "items", len(v.seq))
			return v.seq[0].obj, nil
		}
		return nil, &StructureError{Label: label, Got: v.kind}
	default:
		return nil, &StructureError{Label: label, Got: v.kind}
	}
}

// Lookup reads key from an object, or from the first object in a sequence
// that has it. Anything else yields def.
func Lookup(container Value, key string, def Value) Value {
	switch container.kind {
	case KindObject:
		if v, ok := container.obj.Get(key); ok {
			return v
		}
	case KindSequence:
		for _, it := range container.seq {
			if it.kind != KindObject {
				continue
			}
			if v, ok := it.obj.Get(key); ok {
				return v
			}
		}
	}
	return def
}

// Objects returns the keyed objects in v. A single object counts as a
// one-element collection; non-object members of a sequence are skipped.
func Objects(v Value) (objs []*Object, skipped int) {
	switch v.kind {
	case KindObject:
		return []*Object{v.obj}, 0
	case KindSequence:
		for _, it := range v.seq {
			if it.kind == KindObject {
				objs = append(objs, it.obj)
			} else {
				skipped++
			}
		}
	}
	return objs, skipped
}
