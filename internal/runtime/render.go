package runtime

import (
	"encoding/json"
	"log/slog"
	"regexp"
)

var slotPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// renderInstruction substitutes {slot_name} placeholders with the current
// session slot values. Records are embedded as JSON so downstream steps
// can reason over the full structure. A missing slot never crashes the
// step: it renders as an empty string and is logged.
func renderInstruction(template string, slots map[string]any, logger *slog.Logger) string {
	return slotPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		value, ok := slots[key]
		if !ok {
			logger.Warn("instruction references unpublished slot", "slot", key)
			return ""
		}
		switch v := value.(type) {
		case string:
			return v
		default:
			data, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				logger.Warn("slot value not serializable", "slot", key, "err", err)
				return ""
			}
			return string(data)
		}
	})
}
