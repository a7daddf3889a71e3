// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package starconv converts values between Go and Starlark.
package starconv

import (
	"fmt"
	"math"
	"time"

	starlarktime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// GoValuer is implemented by Starlark values that wrap a Go value.
// FromValue returns the wrapped value as is.
type GoValuer interface {
	starlark.Value
	GoValue() any
}

// ToValue converts val to [starlark.Value]. It supports values produced by
// decoding JSON into an interface, plus Go integers and time.Time.
func ToValue(val any) (starlark.Value, error) {
	switch v := val.(type) {
	case nil:
		return starlark.None, nil
	case starlark.Value:
		return v, nil
	case bool:
		return starlark.Bool(v), nil
	case string:
		return starlark.String(v), nil
	case int:
		return starlark.MakeInt(v), nil
	case int8:
		return starlark.MakeInt(int(v)), nil
	case int16:
		return starlark.MakeInt(int(v)), nil
	case int32:
		return starlark.MakeInt(int(v)), nil
	case int64:
		return starlark.MakeInt64(v), nil
	case uint:
		return starlark.MakeUint(v), nil
	case uint8:
		return starlark.MakeUint(uint(v)), nil
	case uint16:
		return starlark.MakeUint(uint(v)), nil
	case uint32:
		return starlark.MakeUint(uint(v)), nil
	case uint64:
		return starlark.MakeUint64(v), nil
	case float32:
		if canBeInt(float64(v)) {
			return starlark.MakeInt64(int64(v)), nil
		}
		return starlark.Float(v), nil
	case float64:
		if canBeInt(v) {
			return starlark.MakeInt64(int64(v)), nil
		}
		return starlark.Float(v), nil
	case time.Time:
		return starlarktime.Time(v), nil
	case []byte:
		return starlark.Bytes(v), nil
	case []any:
		list := make([]starlark.Value, 0, len(v))
		for _, item := range v {
			conv, err := ToValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, conv)
		}
		return starlark.NewList(list), nil
	case map[string]any:
		return mapToDict(v)
	default:
		return nil, fmt.Errorf("unsupported Go type: %T", val)
	}
}

// canBeInt reports if the float can be converted to int without losing
// precision.
func canBeInt(f float64) bool {
	if f < -(1<<63) || f >= 1<<63 {
		return false
	}
	return f == math.Trunc(f)
}

func mapToDict(goMap map[string]any) (starlark.Value, error) {
	dict := starlark.NewDict(len(goMap))
	for key, value := range goMap {
		val, err := ToValue(value)
		if err != nil {
			return nil, fmt.Errorf("converting value of %q: %w", key, err)
		}
		if err := dict.SetKey(starlark.String(key), val); err != nil {
			return nil, err
		}
	}
	return dict, nil
}

// FromValue converts v to a Go value: None to nil, bool, int64, float64,
// string, []byte, []any for lists and tuples, and map[string]any for dicts
// and structs.
func FromValue(v starlark.Value) (any, error) {
	switch v := v.(type) {
	case GoValuer:
		return v.GoValue(), nil
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(v), nil
	case starlark.Int:
		i, ok := v.Int64()
		if !ok {
			return nil, fmt.Errorf("int %s is too large", v)
		}
		return i, nil
	case starlark.Float:
		return float64(v), nil
	case starlark.String:
		return string(v), nil
	case starlark.Bytes:
		return []byte(v), nil
	case starlarktime.Time:
		return time.Time(v), nil
	case starlark.Indexable: // lists and tuples
		list := make([]any, 0, v.Len())
		for i := range v.Len() {
			item, err := FromValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
		return list, nil
	case *starlark.Dict:
		m := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key %s is not a string", item[0].Type())
			}
			val, err := FromValue(item[1])
			if err != nil {
				return nil, fmt.Errorf("converting value of %q: %w", string(key), err)
			}
			m[string(key)] = val
		}
		return m, nil
	case *starlarkstruct.Struct:
		m := make(map[string]any)
		for _, name := range v.AttrNames() {
			attr, err := v.Attr(name)
			if err != nil {
				return nil, err
			}
			val, err := FromValue(attr)
			if err != nil {
				return nil, fmt.Errorf("converting field %q: %w", name, err)
			}
			m[name] = val
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported Starlark type: %s", v.Type())
	}
}
