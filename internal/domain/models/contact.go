package models

// FormState holds the three editable fields of the contact form.
// The zero value is the empty form.
type FormState struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// IsZero reports whether every field is empty.
func (s FormState) IsZero() bool {
	return s == FormState{}
}

// Severity classifies a NotificationEvent.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// NotificationEvent is a transient, user-facing message describing the result
// of a validation or send attempt. It is never stored.
type NotificationEvent struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// IsError reports whether the event should be rendered as destructive.
func (e NotificationEvent) IsError() bool {
	return e.Severity == SeverityError
}

// ChannelKind identifies how a ContactChannel is reached.
type ChannelKind string

const (
	ChannelEmail     ChannelKind = "email"
	ChannelPhone     ChannelKind = "phone"
	ChannelPortfolio ChannelKind = "portfolio"
	ChannelLinkedIn  ChannelKind = "linkedin"
)

// ContactChannel is one static, displayed means of reaching the site owner.
type ContactChannel struct {
	Kind  ChannelKind `json:"kind"`
	Label string      `json:"label"`
	Value string      `json:"value"`
	Href  string      `json:"href"`
}

// Location is the static location card shown beside the channels.
type Location struct {
	Label string `json:"label"`
	Place string `json:"place"`
	Blurb string `json:"blurb"`
}
