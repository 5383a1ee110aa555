package schema

import (
	"encoding/json"
	"fmt"
)

// FieldType enumerates the primitive and composite types a field may carry.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeInteger FieldType = "integer"
	TypeBool    FieldType = "boolean"
	// TypeList is an ordered collection. Elem describes the element shape:
	// either a primitive (Elem.Type) or a nested record (Elem.Record).
	TypeList FieldType = "array"
	// TypeRecord is a nested closed record described by Field.Record.
	TypeRecord FieldType = "object"
)

// Field describes one mandatory entry of a closed record.
type Field struct {
	Name        string
	Type        FieldType
	Description string

	// Elem is set when Type == TypeList.
	Elem *Elem
	// Record is set when Type == TypeRecord.
	Record *Definition
}

// Elem describes the element type of a list field.
type Elem struct {
	Type   FieldType
	Record *Definition // set when Type == TypeRecord
}

// Definition is a closed record: every field is required,
// unknown fields are rejected.
type Definition struct {
	Name   string
	Fields []Field
}

// New builds a Definition from the given fields.
func New(name string, fields ...Field) *Definition {
	return &Definition{Name: name, Fields: fields}
}

// String declares a required string field.
func String(name, description string) Field {
	return Field{Name: name, Type: TypeString, Description: description}
}

// Number declares a required numeric field.
func Number(name, description string) Field {
	return Field{Name: name, Type: TypeNumber, Description: description}
}

// Integer declares a required whole-number field.
func Integer(name, description string) Field {
	return Field{Name: name, Type: TypeInteger, Description: description}
}

// Bool declares a required boolean field.
func Bool(name, description string) Field {
	return Field{Name: name, Type: TypeBool, Description: description}
}

// ListOf declares a required list of primitive elements.
func ListOf(name, description string, elem FieldType) Field {
	return Field{Name: name, Type: TypeList, Description: description, Elem: &Elem{Type: elem}}
}

// ListOfRecord declares a required list whose elements are nested records.
func ListOfRecord(name, description string, record *Definition) Field {
	return Field{Name: name, Type: TypeList, Description: description, Elem: &Elem{Type: TypeRecord, Record: record}}
}

// RecordOf declares a required nested record field.
func RecordOf(name, description string, record *Definition) Field {
	return Field{Name: name, Type: TypeRecord, Description: description, Record: record}
}

// Validate checks that data conforms to the definition.
// All violations are collected before failing.
func (d *Definition) Validate(data map[string]any) error {
	errs := d.validate(data, "")
	if len(errs) > 0 {
		return &ValidationError{Schema: d.Name, Errors: errs}
	}
	return nil
}

func (d *Definition) validate(data map[string]any, path string) []error {
	var errs []error

	known := make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		known[f.Name] = struct{}{}

		value, exists := data[f.Name]
		if !exists {
			errs = append(errs, &FieldError{Field: path + f.Name, Reason: "required"})
			continue
		}
		errs = append(errs, validateValue(f.Type, f.Elem, f.Record, value, path+f.Name)...)
	}

	// Closed record: anything not declared is a violation.
	for key := range data {
		if _, ok := known[key]; !ok {
			errs = append(errs, &FieldError{Field: path + key, Reason: "not declared in schema", Value: data[key]})
		}
	}
	return errs
}

func validateValue(t FieldType, elem *Elem, record *Definition, value any, path string) []error {
	switch t {
	case TypeString:
		if _, ok := value.(string); !ok {
			return []error{&FieldError{Field: path, Reason: "expected string", Value: value}}
		}
	case TypeNumber:
		switch value.(type) {
		case float32, float64, int, int32, int64, json.Number:
		default:
			return []error{&FieldError{Field: path, Reason: "expected number", Value: value}}
		}
	case TypeInteger:
		switch v := value.(type) {
		case int, int32, int64:
		case float64:
			// JSON unmarshals every number as float64; accept whole values.
			if v != float64(int64(v)) {
				return []error{&FieldError{Field: path, Reason: "expected integer, got fractional number", Value: value}}
			}
		case json.Number:
			if _, err := v.Int64(); err != nil {
				return []error{&FieldError{Field: path, Reason: "expected integer", Value: value}}
			}
		default:
			return []error{&FieldError{Field: path, Reason: "expected integer", Value: value}}
		}
	case TypeBool:
		if _, ok := value.(bool); !ok {
			return []error{&FieldError{Field: path, Reason: "expected boolean", Value: value}}
		}
	case TypeList:
		items, ok := value.([]any)
		if !ok {
			return []error{&FieldError{Field: path, Reason: "expected list", Value: value}}
		}
		var errs []error
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if elem.Type == TypeRecord {
				rec, ok := item.(map[string]any)
				if !ok {
					errs = append(errs, &FieldError{Field: itemPath, Reason: "expected record", Value: item})
					continue
				}
				errs = append(errs, elem.Record.validate(rec, itemPath+".")...)
			} else {
				errs = append(errs, validateValue(elem.Type, nil, nil, item, itemPath)...)
			}
		}
		return errs
	case TypeRecord:
		rec, ok := value.(map[string]any)
		if !ok {
			return []error{&FieldError{Field: path, Reason: "expected record", Value: value}}
		}
		return record.validate(rec, path+".")
	default:
		return []error{&FieldError{Field: path, Reason: fmt.Sprintf("unsupported type %q", t), Value: value}}
	}
	return nil
}

// Parse unmarshals raw model output and validates it against the
// definition. Any violation is fatal for the step that owns the schema.
func (d *Definition) Parse(raw []byte) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &ValidationError{
			Schema: d.Name,
			Errors: []error{fmt.Errorf("output is not a JSON record: %w", err)},
		}
	}
	if err := d.Validate(data); err != nil {
		return nil, err
	}
	return data, nil
}
