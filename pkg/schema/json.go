package schema

// JSONSchema emits the definition as a JSON-Schema map (draft 2020-12
// subset). The map is handed to the inference provider as a structured
// output constraint and reused locally for strict validation.
func (d *Definition) JSONSchema() map[string]any {
	props := make(map[string]any, len(d.Fields))
	required := make([]string, 0, len(d.Fields))

	for _, f := range d.Fields {
		props[f.Name] = fieldSchema(f.Type, f.Elem, f.Record, f.Description)
		required = append(required, f.Name)
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func fieldSchema(t FieldType, elem *Elem, record *Definition, description string) map[string]any {
	var s map[string]any
	switch t {
	case TypeList:
		var items map[string]any
		if elem.Type == TypeRecord {
			items = elem.Record.JSONSchema()
		} else {
			items = map[string]any{"type": string(elem.Type)}
		}
		s = map[string]any{"type": "array", "items": items}
	case TypeRecord:
		s = record.JSONSchema()
	default:
		s = map[string]any{"type": string(t)}
	}
	if description != "" {
		s["description"] = description
	}
	return s
}
