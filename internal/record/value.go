package record

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Normalize folds driver and caller representations of the same value
// together: every integer kind becomes int64, every float float64, and
// []byte becomes string.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return val
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	default:
		return v
	}
}

// Equal compares two attribute values after normalization.
func Equal(a, b any) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == nil || nb == nil {
		return na == nil && nb == nil
	}
	if reflect.TypeOf(na).Comparable() && reflect.TypeOf(nb).Comparable() {
		return na == nb
	}
	return reflect.DeepEqual(na, nb)
}

// IsBlank reports whether a key value is unset: nil or an empty string.
func IsBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []byte:
		return len(val) == 0
	default:
		return false
	}
}

// KeyString renders a key value for map lookups, so 7, int64(7) and "7"
// all land on the same entry.
func KeyString(v any) string {
	switch val := Normalize(v).(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(val, 10)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// ToSlice converts any slice or array to []any. Scalars come back as a
// one-element slice; nil comes back empty. []byte is treated as a scalar.
func ToSlice(v any) []any {
	if v == nil {
		return []any{}
	}
	switch val := v.(type) {
	case []any:
		return val
	case []byte:
		return []any{string(val)}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
