package repository

import (
	"fmt"
	"strconv"

	"github.com/roach88/repokit/internal/record"
)

// Input is the payload of a write: one record, one attribute map, or an
// ordered list of those.
type Input interface {
	isInput()
}

type singleRecord struct{ rec *record.Record }

type singleAttrs struct{ attrs map[string]any }

type manyInputs struct{ items []Input }

func (singleRecord) isInput() {}
func (singleAttrs) isInput()  {}
func (manyInputs) isInput()   {}

// Single wraps one record.
func Single(rec *record.Record) Input {
	return singleRecord{rec: rec}
}

// SingleAttrs wraps one attribute map.
func SingleAttrs(attrs map[string]any) Input {
	return singleAttrs{attrs: attrs}
}

// Many wraps an ordered list of single inputs.
func Many(items ...Input) Input {
	return manyInputs{items: items}
}

// ManyAttrs wraps an ordered list of attribute maps.
func ManyAttrs(attrs ...map[string]any) Input {
	items := make([]Input, len(attrs))
	for i, a := range attrs {
		items[i] = SingleAttrs(a)
	}
	return manyInputs{items: items}
}

// ManyRecords wraps an ordered list of records.
func ManyRecords(recs ...*record.Record) Input {
	items := make([]Input, len(recs))
	for i, r := range recs {
		items[i] = Single(r)
	}
	return manyInputs{items: items}
}

// FromValue converts decoded data (JSON or YAML) into an Input. Objects
// become single inputs and arrays of objects become lists. An object whose
// keys are all list indexes ("0", "1", ...) is rejected since it is a list
// in disguise.
func FromValue(v any) (Input, error) {
	switch t := v.(type) {
	case Input:
		return t, nil
	case *record.Record:
		return Single(t), nil
	case record.Collection:
		return ManyRecords(t...), nil
	case []*record.Record:
		return ManyRecords(t...), nil
	case map[string]any:
		if isListLike(t) {
			return nil, newInvalidInputShape("", "attribute map with only positional keys")
		}
		return SingleAttrs(t), nil
	case []map[string]any:
		return ManyAttrs(t...), nil
	case []any:
		items := make([]Input, 0, len(t))
		for i, e := range t {
			switch e.(type) {
			case []any, []map[string]any, record.Collection, []*record.Record:
				return nil, newInvalidInputShape("", fmt.Sprintf("item %d: nested list", i))
			}
			in, err := FromValue(e)
			if err != nil {
				return nil, err
			}
			items = append(items, in)
		}
		return manyInputs{items: items}, nil
	default:
		return nil, newInvalidInputShape("", fmt.Sprintf("unsupported input %T", v))
	}
}

func isListLike(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if _, err := strconv.Atoi(k); err != nil {
			return false
		}
	}
	return true
}

// Target selects records to delete.
type Target interface {
	isTarget()
}

type recordTarget struct{ rec *record.Record }

type recordsTarget struct{ recs record.Collection }

type idsTarget struct{ ids []any }

func (recordTarget) isTarget()  {}
func (recordsTarget) isTarget() {}
func (idsTarget) isTarget()     {}

// RecordTarget deletes one record instance.
func RecordTarget(rec *record.Record) Target {
	return recordTarget{rec: rec}
}

// RecordsTarget deletes a list of record instances by key.
func RecordsTarget(recs ...*record.Record) Target {
	return recordsTarget{recs: recs}
}

// IDTarget deletes one key.
func IDTarget(id any) Target {
	return idsTarget{ids: []any{id}}
}

// IDsTarget deletes a set of keys. An empty set deletes nothing.
func IDsTarget(ids ...any) Target {
	return idsTarget{ids: ids}
}
