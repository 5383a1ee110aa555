package schema

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode maps a validated record onto a typed Go struct using `json`
// field tags. Numeric widening (float64 -> int, etc.) is allowed since
// JSON unmarshaling erases integer types.
func Decode(record map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(record); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
