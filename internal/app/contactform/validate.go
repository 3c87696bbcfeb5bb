package contactform

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/dalemusser/contactsection/internal/domain/models"
)

// Field names a form field.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldMessage Field = "message"
)

// Length limits, in UTF-16 code units after trimming. A character outside
// the Basic Multilingual Plane (most emoji) counts as two.
const (
	MaxNameLength    = 100
	MaxEmailLength   = 255
	MaxMessageLength = 1000
)

// spaceClass is the browser whitespace set: ASCII \t\n\v\f\r and space,
// every Zs space, U+2028, U+2029 and U+FEFF. U+0085 is not in it.
// RE2's \s alone is ASCII-only.
const spaceClass = `\t\n\v\f\r\p{Zs}\x{2028}\x{2029}\x{FEFF}`

// emailPattern is permissive: one local segment, an "@", and a domain
// containing a dot, none of them holding whitespace.
var emailPattern = regexp.MustCompile(
	`^[^` + spaceClass + `@]+@[^` + spaceClass + `@]+\.[^` + spaceClass + `@]+$`)

// ValidationError describes the first field that failed validation.
type ValidationError struct {
	Field       Field
	Title       string
	Description string
}

func (e *ValidationError) Error() string {
	return "contactform: invalid " + string(e.Field) + ": " + e.Description
}

// Event returns the notification shown for this rejection.
func (e *ValidationError) Event() models.NotificationEvent {
	return models.NotificationEvent{
		Title:       e.Title,
		Description: e.Description,
		Severity:    models.SeverityError,
	}
}

var (
	errInvalidName = &ValidationError{
		Field:       FieldName,
		Title:       "Invalid name",
		Description: "Please enter a valid name (max 100 characters).",
	}
	errInvalidEmail = &ValidationError{
		Field:       FieldEmail,
		Title:       "Invalid email",
		Description: "Please enter a valid email address.",
	}
	errInvalidMessage = &ValidationError{
		Field:       FieldMessage,
		Title:       "Invalid message",
		Description: "Please enter a message (max 1000 characters).",
	}
)

// Validate trims s and checks name, email and message in that order. The
// first failing field wins. On success it returns the trimmed values
// byte for byte; nothing else is rewritten.
func Validate(s models.FormState) (models.FormState, error) {
	clean := models.FormState{
		Name:    trim(s.Name),
		Email:   trim(s.Email),
		Message: trim(s.Message),
	}

	if clean.Name == "" || length(clean.Name) > MaxNameLength {
		return s, errInvalidName
	}
	if clean.Email == "" || !ValidEmail(clean.Email) {
		return s, errInvalidEmail
	}
	if clean.Message == "" || length(clean.Message) > MaxMessageLength {
		return s, errInvalidMessage
	}
	return clean, nil
}

// ValidEmail reports whether s (already trimmed) passes the length limit and
// the permissive address pattern.
func ValidEmail(s string) bool {
	return length(s) <= MaxEmailLength && emailPattern.MatchString(s)
}

// trim strips leading and trailing whitespace as a browser's
// String.prototype.trim does.
func trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\ufeff':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// length counts s in UTF-16 code units, the unit the field limits use.
// Invalid UTF-8 bytes count as one unit each (U+FFFD).
func length(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
