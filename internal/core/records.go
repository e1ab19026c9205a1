package core

import (
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is a canonical, typed record of one entity type. Implementations
// are pointers to structs whose optional fields are pointers,
// decimal.NullDecimal or maps, so that MergeRecord can tell null from set.
type Record interface {
	Entity() EntityType
	NaturalKey() string
}

// KeySeparator joins natural key parts.
const KeySeparator = "\x1f"

// NaturalKey builds a key from identity parts, case-insensitively.
func NaturalKey(parts ...string) string {
	up := make([]string, len(parts))
	for i, p := range parts {
		up[i] = strings.ToUpper(strings.TrimSpace(p))
	}
	return strings.Join(up, KeySeparator)
}

// DisplayKey renders a natural key for messages: "CJCJ/931".
func DisplayKey(key string) string {
	return strings.ReplaceAll(key, KeySeparator, "/")
}

var nullDecimalType = reflect.TypeOf(decimal.NullDecimal{})

// MergeRecord copies every non-null field of src onto dst, field by field.
// Both must be pointers to the same struct type; identity fields (plain
// strings and values) are left alone.
func MergeRecord(dst, src Record) {
	dv, sv := reflect.ValueOf(dst), reflect.ValueOf(src)
	if dv.Kind() != reflect.Pointer || sv.Type() != dv.Type() {
		return
	}
	dv, sv = dv.Elem(), sv.Elem()
	for i := 0; i < dv.NumField(); i++ {
		df, sf := dv.Field(i), sv.Field(i)
		if !df.CanSet() {
			continue
		}
		switch {
		case sf.Kind() == reflect.Pointer:
			if !sf.IsNil() {
				df.Set(sf)
			}
		case sf.Type() == nullDecimalType:
			if sf.Interface().(decimal.NullDecimal).Valid {
				df.Set(sf)
			}
		case sf.Kind() == reflect.Map:
			if sf.Len() == 0 {
				continue
			}
			if df.IsNil() {
				df.Set(reflect.MakeMapWithSize(sf.Type(), sf.Len()))
			}
			iter := sf.MapRange()
			for iter.Next() {
				df.SetMapIndex(iter.Key(), iter.Value())
			}
		}
	}
}
