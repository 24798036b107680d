// Package stringify serializes arbitrary Go values to JSON text without
// failing on reference cycles.
//
// Output follows encoding/json conventions (struct tags, sorted map keys,
// base64 []byte, json.Marshaler) except that a container which is already
// being serialized further up the tree is replaced by the string
// "[Circular ~.path]", where path names the ancestor it refers back to.
// Values JSON cannot represent (funcs, channels, complex numbers) are
// dropped from objects and become null inside arrays.
package stringify

import (
	"bytes"
	"encoding"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrUnsupported is returned when the top-level value has no JSON form.
var ErrUnsupported = errors.New("value cannot be serialized to JSON")

var (
	marshalerType     = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// String serializes v.
func String(v any) (string, error) {
	e := &encoder{stack: make(map[visit]string)}
	ok, err := e.value(reflect.ValueOf(v), "")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
	return e.buf.String(), nil
}

// visit identifies a container on the current serialization path.
type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type encoder struct {
	buf   bytes.Buffer
	stack map[visit]string
}

// value writes v and reports false when v has no JSON form, in which case
// nothing was written.
func (e *encoder) value(v reflect.Value, path string) (bool, error) {
	if !v.IsValid() {
		e.buf.WriteString("null")
		return true, nil
	}

	if v.Kind() == reflect.Pointer && v.IsNil() {
		e.buf.WriteString("null")
		return true, nil
	}
	if v.Kind() != reflect.Interface && v.CanInterface() && v.Type().Implements(marshalerType) {
		return true, e.marshaler(v)
	}
	if v.Kind() != reflect.Interface && v.CanInterface() && v.Type().Implements(textMarshalerType) {
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return false, err
		}
		e.string(string(text))
		return true, nil
	}

	switch v.Kind() {
	case reflect.Bool:
		e.buf.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.buf.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		e.buf.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		e.float(v.Float(), v.Type().Bits())
	case reflect.String:
		e.string(v.String())
	case reflect.Interface:
		if v.IsNil() {
			e.buf.WriteString("null")
			return true, nil
		}
		return e.value(v.Elem(), path)
	case reflect.Pointer:
		return e.enter(visit{ptr: v.Pointer(), typ: v.Type()}, path, func() (bool, error) {
			return e.value(v.Elem(), path)
		})
	case reflect.Map:
		if v.IsNil() {
			e.buf.WriteString("null")
			return true, nil
		}
		return e.enter(visit{ptr: v.Pointer(), typ: v.Type()}, path, func() (bool, error) {
			return true, e.mapValue(v, path)
		})
	case reflect.Slice:
		if v.IsNil() {
			e.buf.WriteString("null")
			return true, nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			e.string(base64.StdEncoding.EncodeToString(v.Bytes()))
			return true, nil
		}
		return e.enter(visit{ptr: v.Pointer(), typ: v.Type(), len: v.Len()}, path, func() (bool, error) {
			return true, e.array(v, path)
		})
	case reflect.Array:
		return true, e.array(v, path)
	case reflect.Struct:
		return true, e.structValue(v, path)
	default:
		// func, chan, complex, unsafe pointer
		return false, nil
	}
	return true, nil
}

// enter guards a container against cycles for the duration of fn.
func (e *encoder) enter(key visit, path string, fn func() (bool, error)) (bool, error) {
	if at, seen := e.stack[key]; seen {
		e.string("[Circular ~" + at + "]")
		return true, nil
	}
	e.stack[key] = path
	defer delete(e.stack, key)
	return fn()
}

func (e *encoder) marshaler(v reflect.Value) error {
	data, err := v.Interface().(json.Marshaler).MarshalJSON()
	if err != nil {
		return fmt.Errorf("stringify: %s: %w", v.Type(), err)
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return fmt.Errorf("stringify: %s: %w", v.Type(), err)
	}
	e.buf.Write(compact.Bytes())
	return nil
}

func (e *encoder) float(f float64, bits int) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		e.buf.WriteString("null")
		return
	}
	data, _ := json.Marshal(f)
	if bits == 32 {
		data, _ = json.Marshal(float32(f))
	}
	e.buf.Write(data)
}

// string writes s as a JSON string without HTML escaping.
func (e *encoder) string(s string) {
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	e.buf.Write(bytes.TrimRight(out.Bytes(), "\n"))
}

func (e *encoder) array(v reflect.Value, path string) error {
	e.buf.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		ok, err := e.value(v.Index(i), path+"."+strconv.Itoa(i))
		if err != nil {
			return err
		}
		if !ok {
			e.buf.WriteString("null")
		}
	}
	e.buf.WriteByte(']')
	return nil
}

func (e *encoder) mapValue(v reflect.Value, path string) error {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key, err := mapKey(iter.Key())
		if err != nil {
			return err
		}
		entries = append(entries, entry{key: key, val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	fields := make([]field, len(entries))
	for i, en := range entries {
		fields[i] = field{name: en.key, val: en.val}
	}
	return e.object(fields, path)
}

func mapKey(k reflect.Value) (string, error) {
	if k.Kind() == reflect.String {
		return k.String(), nil
	}
	if k.CanInterface() && k.Type().Implements(textMarshalerType) {
		text, err := k.Interface().(encoding.TextMarshaler).MarshalText()
		return string(text), err
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", fmt.Errorf("%w: map key type %s", ErrUnsupported, k.Type())
}

type field struct {
	name string
	val  reflect.Value
}

func (e *encoder) object(fields []field, path string) error {
	e.buf.WriteByte('{')
	first := true
	for _, f := range fields {
		mark := e.buf.Len()
		if !first {
			e.buf.WriteByte(',')
		}
		e.string(f.name)
		e.buf.WriteByte(':')
		ok, err := e.value(f.val, path+"."+f.name)
		if err != nil {
			return err
		}
		if !ok {
			e.buf.Truncate(mark)
			continue
		}
		first = false
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) structValue(v reflect.Value, path string) error {
	var fields []field
	for _, sf := range structFields(v.Type()) {
		fv, ok := fieldByIndex(v, sf.index)
		if !ok {
			continue
		}
		if sf.omitEmpty && isEmptyValue(fv) {
			continue
		}
		fields = append(fields, field{name: sf.name, val: fv})
	}
	return e.object(fields, path)
}

// fieldByIndex walks embedded pointers, reporting false on a nil one.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

type structField struct {
	name      string
	index     []int
	omitEmpty bool
	tagged    bool
}

var fieldCache sync.Map // reflect.Type -> []structField

// structFields lists the serialized fields of t in declaration order,
// flattening untagged embedded structs. Name clashes resolve like
// encoding/json: the shallowest field wins, a tagged field beats untagged
// ones at the same depth, and a remaining tie drops the name entirely.
func structFields(t reflect.Type) []structField {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]structField)
	}

	var candidates []structField
	onPath := map[reflect.Type]bool{t: true}
	var walk func(t reflect.Type, prefix []int)
	walk = func(t reflect.Type, prefix []int) {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			tag := sf.Tag.Get("json")
			if tag == "-" {
				continue
			}
			name, opts, _ := strings.Cut(tag, ",")
			index := append(append([]int(nil), prefix...), i)

			if sf.Anonymous && name == "" {
				ft := sf.Type
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					if !onPath[ft] {
						onPath[ft] = true
						walk(ft, index)
						delete(onPath, ft)
					}
					continue
				}
			}
			if !sf.IsExported() {
				continue
			}
			tagged := name != ""
			if !tagged {
				name = sf.Name
			}
			candidates = append(candidates, structField{
				name:      name,
				index:     index,
				omitEmpty: strings.Contains(","+opts+",", ",omitempty,"),
				tagged:    tagged,
			})
		}
	}
	walk(t, nil)

	out := dominantFields(candidates)
	fieldCache.Store(t, out)
	return out
}

// dominantFields keeps one field per name, preserving declaration order.
func dominantFields(candidates []structField) []structField {
	byName := make(map[string][]structField)
	for _, f := range candidates {
		byName[f.name] = append(byName[f.name], f)
	}

	out := make([]structField, 0, len(candidates))
	for _, f := range candidates {
		winner, ok := dominant(byName[f.name])
		if ok && slices.Equal(winner.index, f.index) {
			out = append(out, f)
		}
	}
	return out
}

func dominant(fields []structField) (structField, bool) {
	depth := len(fields[0].index)
	for _, f := range fields[1:] {
		depth = min(depth, len(f.index))
	}

	var shallow []structField
	for _, f := range fields {
		if len(f.index) == depth {
			shallow = append(shallow, f)
		}
	}
	if len(shallow) == 1 {
		return shallow[0], true
	}

	var tagged []structField
	for _, f := range shallow {
		if f.tagged {
			tagged = append(tagged, f)
		}
	}
	if len(tagged) == 1 {
		return tagged[0], true
	}
	return structField{}, false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}
