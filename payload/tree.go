// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"slices"
	"strings"
)

// object is the normalized form of maps and structs: an ordered list of
// members. Struct members keep declaration order, map members are sorted by
// key.
type object []member

type member struct {
	key string
	val any
}

func (o object) get(key string) (any, bool) {
	for _, m := range o {
		if m.key == key {
			return m.val, true
		}
	}
	return nil, false
}

func (o object) set(key string, val any) object {
	for i, m := range o {
		if m.key == key {
			o[i].val = val
			return o
		}
	}
	return append(o, member{key: key, val: val})
}

var (
	marshalerType = reflect.TypeFor[json.Marshaler]()
	inputFileType = reflect.TypeFor[*InputFile]()
)

// normalize converts v into a tree made of nil, *InputFile, object, []any
// and leaf values that are encoded by encoding/json.
func normalize(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case object:
		return v
	case string, bool, int, int64, float64:
		return v
	}
	return normalizeValue(reflect.ValueOf(v))
}

func normalizeValue(rv reflect.Value) any {
	if !rv.IsValid() {
		return nil
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return nil
		}
	}
	if rv.Type() == inputFileType {
		return rv.Interface()
	}
	if rv.Kind() != reflect.Interface && rv.Type().Implements(marshalerType) {
		return rv.Interface()
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return normalizeValue(rv.Elem())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return rv.Interface()
		}
		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return strings.Compare(a.String(), b.String())
		})
		obj := make(object, 0, len(keys))
		for _, k := range keys {
			obj = append(obj, member{key: k.String(), val: normalizeValue(rv.MapIndex(k))})
		}
		return obj
	case reflect.Struct:
		obj := object{}
		appendFields(&obj, rv)
		return obj
	case reflect.Slice, reflect.Array:
		// Byte slices are encoded as base64 strings by encoding/json.
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Interface()
		}
		list := make([]any, rv.Len())
		for i := range rv.Len() {
			list[i] = normalizeValue(rv.Index(i))
		}
		return list
	default:
		return rv.Interface()
	}
}

// appendFields appends exported struct fields of rv to obj, following the
// encoding/json conventions for tags and embedded structs.
func appendFields(obj *object, rv reflect.Value) {
	rt := rv.Type()
	for i := range rt.NumField() {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		fv := rv.Field(i)

		if f.Anonymous && name == "" {
			ev := fv
			if ev.Kind() == reflect.Pointer {
				if ev.IsNil() {
					continue
				}
				ev = ev.Elem()
			}
			if ev.Kind() == reflect.Struct {
				appendFields(obj, ev)
				continue
			}
		}

		if name == "" {
			name = f.Name
		}
		if hasOption(opts, "omitempty") && isEmptyValue(fv) {
			continue
		}
		*obj = append(*obj, member{key: name, val: normalizeValue(fv)})
	}
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}

// containsFile reports whether a normalized value holds an *InputFile.
func containsFile(v any) bool {
	switch v := v.(type) {
	case *InputFile:
		return true
	case object:
		return slices.ContainsFunc(v, func(m member) bool { return containsFile(m.val) })
	case []any:
		return slices.ContainsFunc(v, containsFile)
	}
	return false
}

var errFileInJSON = errors.New("payload: files cannot be encoded as JSON, use multipart/form-data")

// encode writes v as JSON. Object members holding nil are omitted instead
// of being written as null.
func encode(buf *bytes.Buffer, v any) error {
	switch v := v.(type) {
	case nil:
		buf.WriteString("null")
	case *InputFile:
		return errFileInJSON
	case object:
		buf.WriteByte('{')
		first := true
		for _, m := range v {
			if m.val == nil {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			key, err := json.Marshal(m.key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := encode(buf, m.val); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, el := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, el); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}
