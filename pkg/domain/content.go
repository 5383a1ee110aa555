package domain

import "time"

// Part is one piece of a multimodal request: either text or an inline
// binary attachment tagged with its MIME type.
type Part struct {
	Text string

	Data     []byte
	MIMEType string
	Name     string
}

// IsAttachment reports whether the part carries binary data.
func (p Part) IsAttachment() bool { return len(p.Data) > 0 }

// Content is one assembled user request: text plus zero or more accepted
// attachments. It is handed unchanged to every step of a pipeline.
type Content struct {
	Role  string
	Parts []Part
}

// Empty reports whether the content carries neither text nor attachments.
func (c Content) Empty() bool { return len(c.Parts) == 0 }

// Roles used in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the conversation history owned by the session
// layer. Attachment fields are populated only for user turns that carried
// a file.
type Message struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`

	Attachment     []byte `json:"attachment,omitempty"`
	AttachmentMIME string `json:"attachment_mime,omitempty"`
	AttachmentName string `json:"attachment_name,omitempty"`

	// Failed marks an assistant entry that records a turn failure.
	Failed bool `json:"failed,omitempty"`
}
