package runner

// Pretty model names exposed to UI surfaces, mapped to provider model
// identifiers.
var defaultModels = map[string]string{
	"Gemini 2.5 Flash": "gemini-2.5-flash",
	"Gemini 2.0 Flash": "gemini-2.0-flash",
}

// DefaultModel is used when the caller names no model or an unknown one.
const DefaultModel = "gemini-2.5-flash"

// ModelNames returns the pretty names offered for selection.
func ModelNames() []string {
	return []string{"Gemini 2.5 Flash", "Gemini 2.0 Flash"}
}

// ResolveModel maps a pretty name (or an already-resolved identifier)
// to the provider model identifier.
func ResolveModel(name string) string {
	if name == "" {
		return DefaultModel
	}
	if id, ok := defaultModels[name]; ok {
		return id
	}
	for _, id := range defaultModels {
		if id == name {
			return name
		}
	}
	return DefaultModel
}
