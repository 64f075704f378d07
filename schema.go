package vectordb

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

const tagKey = "vectordb"

// Record is one row: field name to value.
type Record map[string]any

// schemaMeta holds parsed struct tag metadata.
type schemaMeta struct {
	typ     reflect.Type
	fields  []Field
	mapping []fieldMapping
}

type fieldMapping struct {
	structIdx int
	name      string
}

// FieldsOf derives a table schema from the `vectordb` struct tags of T.
//
// Tag format: `vectordb:"name[,pk][,vector=N]"`. The field type is inferred from
// the Go type: int8, int16, int32 and int/int64 map to INT1..INT8, float32 and
// float64 to FLOAT and DOUBLE, string to STRING, bool to BOOL, []float32 and
// []float64 with vector=N to VECTOR_FLOAT and VECTOR_DOUBLE.
func FieldsOf[T any]() ([]Field, error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, err
	}
	return append([]Field(nil), meta.fields...), nil
}

// RecordsOf converts tagged structs into records ready for Insert.
func RecordsOf[T any](items []T) ([]Record, error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(items))
	for i := range items {
		rec, err := meta.toRecord(items[i])
		if err != nil {
			return nil, fmt.Errorf("vectordb: item %d: %w", i, err)
		}
		out[i] = rec
	}
	return out, nil
}

// parseSchema reflects on T and extracts vectordb struct tag metadata.
func parseSchema[T any]() (*schemaMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return nil, fmt.Errorf("vectordb: cannot derive a schema from an interface type")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("vectordb: type %s is not a struct", t)
	}

	meta := &schemaMeta{typ: t}
	seen := make(map[string]struct{})
	hasPK := false

	for i := range t.NumField() {
		sf := t.Field(i)
		tag := sf.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		f, err := applyTag(sf, tag)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[f.Name()]; dup {
			return nil, fmt.Errorf("vectordb: duplicate field name %q in %s", f.Name(), t)
		}
		seen[f.Name()] = struct{}{}
		if f.PrimaryKey() {
			if hasPK {
				return nil, fmt.Errorf("vectordb: more than one pk tag in %s", t)
			}
			hasPK = true
		}
		meta.fields = append(meta.fields, f)
		meta.mapping = append(meta.mapping, fieldMapping{structIdx: i, name: f.Name()})
	}

	if len(meta.fields) == 0 {
		return nil, fmt.Errorf("vectordb: no field with a `vectordb` tag in %s", t)
	}
	return meta, nil
}

// applyTag turns one struct field and its tag into a Field.
func applyTag(sf reflect.StructField, tag string) (Field, error) {
	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "" {
		name = sf.Name
	}

	pk := false
	dims := 0
	for _, mod := range parts[1:] {
		switch {
		case mod == "pk":
			pk = true
		case strings.HasPrefix(mod, "vector="):
			n, err := strconv.Atoi(strings.TrimPrefix(mod, "vector="))
			if err != nil || n <= 0 {
				return Field{}, fmt.Errorf("vectordb: invalid %q on field %s", mod, sf.Name)
			}
			dims = n
		default:
			return Field{}, fmt.Errorf("vectordb: unknown modifier %q on field %s", mod, sf.Name)
		}
	}

	ft, err := inferFieldType(sf.Type)
	if err != nil {
		return Field{}, fmt.Errorf("vectordb: field %s: %w", sf.Name, err)
	}
	if ft.IsVector() != (dims > 0) {
		if dims > 0 {
			return Field{}, fmt.Errorf("vectordb: vector= on non-vector field %s", sf.Name)
		}
		return Field{}, fmt.Errorf("vectordb: vector field %s needs vector=N", sf.Name)
	}
	if pk && ft.IsVector() {
		return Field{}, fmt.Errorf("vectordb: vector field %s cannot be the primary key", sf.Name)
	}

	return NewField(name, ft, pk, dims), nil
}

func inferFieldType(t reflect.Type) (FieldType, error) {
	switch t.Kind() {
	case reflect.Int8:
		return FieldInt1, nil
	case reflect.Int16:
		return FieldInt2, nil
	case reflect.Int32:
		return FieldInt4, nil
	case reflect.Int, reflect.Int64:
		return FieldInt8, nil
	case reflect.Float32:
		return FieldFloat, nil
	case reflect.Float64:
		return FieldDouble, nil
	case reflect.String:
		return FieldString, nil
	case reflect.Bool:
		return FieldBool, nil
	case reflect.Slice:
		switch t.Elem().Kind() {
		case reflect.Float32:
			return FieldVectorFloat, nil
		case reflect.Float64:
			return FieldVectorDouble, nil
		}
	}
	return FieldUnknown, fmt.Errorf("unsupported type %s", t)
}

// toRecord converts a typed struct to a Record using schema metadata.
func (m *schemaMeta) toRecord(item any) (Record, error) {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("nil %s", m.typ)
		}
		v = v.Elem()
	}
	rec := make(Record, len(m.mapping))
	for _, fm := range m.mapping {
		rec[fm.name] = v.Field(fm.structIdx).Interface()
	}
	return rec, nil
}
