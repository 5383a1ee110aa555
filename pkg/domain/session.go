package domain

// TurnStatus tracks the state machine of a single turn. Failed is
// terminal for the turn only; the session survives it.
type TurnStatus string

const (
	TurnRequestAssembled TurnStatus = "request_assembled"
	TurnRouting          TurnStatus = "routing"
	TurnExecuting        TurnStatus = "executing"
	TurnCompleted        TurnStatus = "completed"
	TurnFailed           TurnStatus = "failed"
)

// Session is the per-conversation state: named slots published by steps,
// the conversation history, and a turn sequence number used to fence off
// stale results.
type Session struct {
	ID      string `json:"id"`
	AppName string `json:"app_name"`
	UserID  string `json:"user_id"`

	// Slots maps output-key -> most recently published value (a record
	// map or free text). Mutated only by committed turns.
	Slots map[string]any `json:"slots"`

	// History is append-only; cleared only by explicit caller action.
	History []Message `json:"history"`

	// Seq increments once per committed turn. A turn may only commit its
	// slot writes if the session's Seq still matches the value observed
	// when the turn started.
	Seq uint64 `json:"seq"`
}

// NewSession creates a fresh session.
func NewSession(id, appName, userID string) *Session {
	return &Session{
		ID:      id,
		AppName: appName,
		UserID:  userID,
		Slots:   make(map[string]any),
	}
}

// Clone returns a copy with its own slot map and history slice. Slot
// values are shared; committed turns replace values, never mutate them.
func (s *Session) Clone() *Session {
	c := *s
	c.Slots = make(map[string]any, len(s.Slots))
	for k, v := range s.Slots {
		c.Slots[k] = v
	}
	c.History = append([]Message(nil), s.History...)
	return &c
}
