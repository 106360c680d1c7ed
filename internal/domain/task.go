package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxTaskTextLength is the maximum number of characters allowed in a task's
// text after normalization.
const MaxTaskTextLength = 140

// Validation messages reported for the text field.
const (
	MsgTextRequired = "Task text is required"
	MsgTextTooLong  = "Task text too long (max 140 chars)"
	MsgTextInvalid  = "Task text must be valid UTF-8"
)

// Task represents a short to-do item.
type Task struct {
	ID        uuid.UUID  `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	OwnerID   *uuid.UUID `json:"ownerId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// TaskPatch carries a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Text      *string
	Completed *bool
}

// IsEmpty reports whether the patch changes no field.
func (p TaskPatch) IsEmpty() bool {
	return p.Text == nil && p.Completed == nil
}

// NewTask creates a new Task from raw user input.
// The text is normalized and validated; the id and both timestamps are assigned
// here and never change afterwards except UpdatedAt.
func NewTask(text string, ownerID *uuid.UUID, now time.Time) (*Task, error) {
	normalized := NormalizeText(text)
	if err := ValidateText(normalized); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	ts := Timestamp(now)
	return &Task{
		ID:        id,
		Text:      normalized,
		Completed: false,
		OwnerID:   ownerID,
		CreatedAt: ts,
		UpdatedAt: ts,
	}, nil
}

// Validate checks that the task satisfies every record invariant.
func (t *Task) Validate() error {
	verr := &ValidationError{}
	if t.ID == uuid.Nil {
		verr.Add("id", "Task id is required")
	}
	if msg := textViolation(t.Text); msg != "" {
		verr.Add("text", msg)
	}
	if t.UpdatedAt.Before(t.CreatedAt) {
		verr.Add("updatedAt", "Task updatedAt cannot precede createdAt")
	}
	return verr.errOrNil()
}

// NormalizeText collapses every run of whitespace to a single space and trims
// leading and trailing whitespace.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ValidateText checks already-normalized text.
func ValidateText(text string) error {
	if msg := textViolation(text); msg != "" {
		return NewValidationError("text", msg)
	}
	return nil
}

// NormalizePatch normalizes and validates the text of a patch, if present.
// The returned patch is safe to hand to a store; on failure nothing in the
// patch may be applied.
func NormalizePatch(patch TaskPatch) (TaskPatch, error) {
	if patch.Text == nil {
		return patch, nil
	}
	normalized := NormalizeText(*patch.Text)
	if err := ValidateText(normalized); err != nil {
		return TaskPatch{}, err
	}
	patch.Text = &normalized
	return patch, nil
}

// ParseTaskID parses a task identifier, returning ErrInvalidID when the value is
// not a well-formed id.
func ParseTaskID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}

// ParseOwnerID parses an optional owner reference. An empty string means no owner.
func ParseOwnerID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrInvalidID
	}
	return &id, nil
}

// Timestamp converts t to the precision every store can round-trip.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func textViolation(text string) string {
	switch {
	case text == "":
		return MsgTextRequired
	case !utf8.ValidString(text):
		return MsgTextInvalid
	case utf8.RuneCountInString(text) > MaxTaskTextLength:
		return MsgTextTooLong
	default:
		return ""
	}
}
