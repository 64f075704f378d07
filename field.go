package vectordb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FieldType is the logical type of a table column. The numeric values are
// fixed by the server API.
type FieldType int

// Supported field types.
const (
	FieldInt1         FieldType = 1
	FieldInt2         FieldType = 2
	FieldInt4         FieldType = 3
	FieldInt8         FieldType = 4
	FieldFloat        FieldType = 10
	FieldDouble       FieldType = 11
	FieldString       FieldType = 20
	FieldBool         FieldType = 30
	FieldVectorFloat  FieldType = 40
	FieldVectorDouble FieldType = 41

	// FieldUnknown stands for a type reported by the server that this client
	// does not know. It is only produced by decoding.
	FieldUnknown FieldType = 999
)

var fieldTypeNames = map[FieldType]string{
	FieldInt1:         "INT1",
	FieldInt2:         "INT2",
	FieldInt4:         "INT4",
	FieldInt8:         "INT8",
	FieldFloat:        "FLOAT",
	FieldDouble:       "DOUBLE",
	FieldString:       "STRING",
	FieldBool:         "BOOL",
	FieldVectorFloat:  "VECTOR_FLOAT",
	FieldVectorDouble: "VECTOR_DOUBLE",
	FieldUnknown:      "UNKNOWN",
}

// "INT" is what the server's own schema examples use for INT4.
var fieldTypeAliases = map[string]FieldType{
	"INT": FieldInt4,
}

// String returns the type name, e.g. "VECTOR_FLOAT".
func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return "FieldType(" + strconv.Itoa(int(t)) + ")"
}

// IsVector reports whether t is a fixed-dimension vector type.
func (t FieldType) IsVector() bool {
	return t == FieldVectorFloat || t == FieldVectorDouble
}

// ParseFieldType resolves a type name (case-insensitive) or its numeric code.
// Anything unrecognised yields FieldUnknown.
func ParseFieldType(s string) FieldType {
	s = strings.ToUpper(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		return fieldTypeFromCode(n)
	}
	if t, ok := fieldTypeAliases[s]; ok {
		return t
	}
	for t, name := range fieldTypeNames {
		if name == s {
			return t
		}
	}
	return FieldUnknown
}

func fieldTypeFromCode(n int) FieldType {
	if _, ok := fieldTypeNames[FieldType(n)]; ok {
		return FieldType(n)
	}
	return FieldUnknown
}

// MarshalJSON encodes the numeric wire value.
func (t FieldType) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(t))), nil
}

// UnmarshalJSON accepts the numeric code or the type name. It never fails on
// an unknown value; the type becomes FieldUnknown instead.
func (t *FieldType) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*t = fieldTypeFromCode(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = ParseFieldType(s)
		return nil
	}
	*t = FieldUnknown
	return nil
}

// Field is one column declaration. It is an immutable value: construct it with
// NewField or one of the helpers and pass it by value.
type Field struct {
	name       string
	dataType   FieldType
	primaryKey bool
	dimensions int
}

// NewField creates a field declaration. Nothing is validated locally; an
// invalid schema is reported by the server when the table is created.
func NewField(name string, dataType FieldType, primaryKey bool, dimensions int) Field {
	return Field{name: name, dataType: dataType, primaryKey: primaryKey, dimensions: dimensions}
}

// PrimaryKeyField declares the table's primary key column.
func PrimaryKeyField(name string, dataType FieldType) Field {
	return NewField(name, dataType, true, 0)
}

// ScalarField declares a plain column.
func ScalarField(name string, dataType FieldType) Field {
	return NewField(name, dataType, false, 0)
}

// VectorField declares a vector column with fixed dimensionality.
func VectorField(name string, dataType FieldType, dimensions int) Field {
	return NewField(name, dataType, false, dimensions)
}

// Name returns the column name.
func (f Field) Name() string { return f.name }

// DataType returns the column type.
func (f Field) DataType() FieldType { return f.dataType }

// PrimaryKey reports whether the column is the primary key.
func (f Field) PrimaryKey() bool { return f.primaryKey }

// Dimensions returns the vector length, 0 for scalar columns.
func (f Field) Dimensions() int { return f.dimensions }

func (f Field) String() string {
	var b strings.Builder
	b.WriteString(f.name)
	b.WriteString(" ")
	b.WriteString(f.dataType.String())
	if f.dimensions > 0 {
		fmt.Fprintf(&b, "(%d)", f.dimensions)
	}
	if f.primaryKey {
		b.WriteString(" PRIMARY KEY")
	}
	return b.String()
}

// fieldWire is the server's representation of a column.
type fieldWire struct {
	Name       string    `json:"name"`
	DataType   FieldType `json:"dataType"`
	PrimaryKey bool      `json:"primaryKey"`
	Dimensions int       `json:"dimensions,omitempty"`
}

// MarshalJSON encodes {name, dataType, primaryKey, dimensions}; dimensions is
// omitted for scalar columns.
func (f Field) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(fieldWire{
		Name:       f.name,
		DataType:   f.dataType,
		PrimaryKey: f.primaryKey,
		Dimensions: f.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal field %s: %w", f.name, err)
	}
	return data, nil
}

// UnmarshalJSON decodes a column echoed by the server.
func (f *Field) UnmarshalJSON(data []byte) error {
	var w fieldWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("unmarshal field: %w", err)
	}
	*f = NewField(w.Name, w.DataType, w.PrimaryKey, w.Dimensions)
	return nil
}
