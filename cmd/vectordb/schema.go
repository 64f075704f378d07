package main

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/vectordb"
)

// schemaFile is the YAML layout accepted by create-table:
//
//	fields:
//	  - name: ID
//	    type: INT
//	    primary_key: true
//	  - name: Embedding
//	    type: VECTOR_FLOAT
//	    dimensions: 384
//	indices:
//	  - name: DocIndex
//	    field: Doc
type schemaFile struct {
	Fields []struct {
		Name       string `yaml:"name"`
		Type       string `yaml:"type"`
		PrimaryKey bool   `yaml:"primary_key"`
		Dimensions int    `yaml:"dimensions"`
	} `yaml:"fields"`
	Indices []struct {
		Name       string `yaml:"name"`
		Field      string `yaml:"field"`
		Model      string `yaml:"model"`
		Dimensions int    `yaml:"dimensions"`
	} `yaml:"indices"`
}

func parseSchemaFile(data []byte) ([]vectordb.Field, []vectordb.Index, error) {
	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, nil, fmt.Errorf("parse schema: %w", err)
	}
	if len(sf.Fields) == 0 {
		return nil, nil, errors.New("schema: at least one field is required")
	}

	fields := make([]vectordb.Field, 0, len(sf.Fields))
	for i, f := range sf.Fields {
		if f.Name == "" {
			return nil, nil, fmt.Errorf("schema: field %d: name is required", i)
		}
		t := vectordb.ParseFieldType(f.Type)
		if t == vectordb.FieldUnknown {
			return nil, nil, fmt.Errorf("schema: field %q: unknown type %q", f.Name, f.Type)
		}
		if t.IsVector() && f.Dimensions <= 0 {
			return nil, nil, fmt.Errorf("schema: field %q: vector fields need dimensions", f.Name)
		}
		fields = append(fields, vectordb.NewField(f.Name, t, f.PrimaryKey, f.Dimensions))
	}

	indices := make([]vectordb.Index, 0, len(sf.Indices))
	for _, ix := range sf.Indices {
		indices = append(indices, vectordb.Index{
			Name:       ix.Name,
			Field:      ix.Field,
			Model:      ix.Model,
			Dimensions: ix.Dimensions,
		})
	}
	return fields, indices, nil
}
