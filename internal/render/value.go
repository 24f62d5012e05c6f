// Package render expands the placeholder templates used to emit test source.
//
// Grammar:
//
//	{{name}}                         substitution
//	{{#if name}}..{{/if}}            conditional (legacy {{#NAME}}..{{/NAME}})
//	{{#unless name}}..{{/unless}}    inverse conditional
//	{{#each name}}..{{/each}}        iteration; {{this}} is the current item
//	{{helper name}}                  uppercase, lowercase, kebabCase, camelCase, pascalCase
//
// Missing variables render as "". Only unterminated blocks are errors.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Value is a context value: String, Number, Bool, List or Map.
// A nil Value means missing or null.
type Value interface {
	isValue()
}

type (
	String string
	Number float64
	Bool   bool
	List   []Value
	Map    map[string]Value
)

func (String) isValue() {}
func (Number) isValue() {}
func (Bool) isValue()   {}
func (List) isValue()   {}
func (Map) isValue()    {}

// Strings converts a string slice to a List.
func Strings(items []string) List {
	out := make(List, len(items))
	for i, s := range items {
		out[i] = String(s)
	}
	return out
}

// From converts common Go values to a Value. Unsupported kinds become nil.
func From(v interface{}) Value {
	switch x := v.(type) {
	case nil:
		return nil
	case Value:
		return x
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case int:
		return Number(x)
	case int32:
		return Number(x)
	case int64:
		return Number(x)
	case float32:
		return Number(x)
	case float64:
		return Number(x)
	case []string:
		return Strings(x)
	case []interface{}:
		out := make(List, len(x))
		for i, item := range x {
			out[i] = From(item)
		}
		return out
	case map[string]interface{}:
		out := make(Map, len(x))
		for k, item := range x {
			out[k] = From(item)
		}
		return out
	case map[string]string:
		out := make(Map, len(x))
		for k, item := range x {
			out[k] = String(item)
		}
		return out
	}

	// Typed slices and maps (e.g. []map[string]string) go through reflection.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make(List, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = From(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		out := make(Map, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = From(iter.Value().Interface())
		}
		return out
	}
	return nil
}

// Truthy reports whether v enables an {{#if}} block. false, nil, "", 0 and
// empty lists are falsy; everything else, including empty maps, is truthy.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case String:
		return x != ""
	case Number:
		return x != 0 && !math.IsNaN(float64(x))
	case Bool:
		return bool(x)
	case List:
		return len(x) > 0
	case Map:
		return true
	}
	return false
}

// Stringify converts v to its substitution text.
func Stringify(v Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case String:
		return string(x)
	case Number:
		return formatNumber(float64(x))
	case Bool:
		return strconv.FormatBool(bool(x))
	case List:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = Stringify(item)
		}
		return strings.Join(parts, ", ")
	case Map:
		return compactJSON(x)
	}
	return ""
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func native(v Value) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case String:
		return string(x)
	case Number:
		return float64(x)
	case Bool:
		return bool(x)
	case List:
		out := make([]interface{}, len(x))
		for i, item := range x {
			out[i] = native(item)
		}
		return out
	case Map:
		out := make(map[string]interface{}, len(x))
		for k, item := range x {
			out[k] = native(item)
		}
		return out
	}
	return nil
}

// compactJSON renders m with sorted keys and without HTML escaping.
func compactJSON(m Map) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(native(m)); err != nil {
		return fmt.Sprintf("%v", native(m))
	}
	return strings.TrimRight(buf.String(), "\n")
}
