package vespaindex

import (
	"fmt"

	"github.com/sycomix/marqo/internal/domain"
	"github.com/sycomix/marqo/internal/domain/index"
)

// verifyFieldType checks a domain value against the declared field type.
// Float fields accept integer-valued numerics; array fields accept any
// sequence kind.
func verifyFieldType(f index.Field, value any) error {
	ok := false
	switch f.Type() {
	case index.TypeText, index.TypeImagePointer:
		_, ok = value.(string)
	case index.TypeBool:
		_, ok = value.(bool)
	case index.TypeInt:
		ok = isIntKind(value)
	case index.TypeFloat:
		ok = isFloatKind(value) || isIntKind(value)
	case index.TypeArrayText, index.TypeArrayInt, index.TypeArrayFloat:
		ok = isSequenceKind(value)
	case index.TypeMultimodalCombination:
		_, ok = value.(map[string]any)
	default:
		return fmt.Errorf("%w: unknown field type %q", domain.ErrInternal, f.Type())
	}

	if !ok {
		return fmt.Errorf("%w: invalid value %v (%T) for field %q with type %s",
			domain.ErrTypeMismatch, value, value, f.Name(), f.Type())
	}
	return nil
}

func isIntKind(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func isFloatKind(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

func isSequenceKind(v any) bool {
	switch v.(type) {
	case []any, []string, []int, []int64, []float64, []float32:
		return true
	}
	return false
}
