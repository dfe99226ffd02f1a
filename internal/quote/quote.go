// Package quote holds the tango code quotes and the service that reads and
// edits them.
package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrEmptyStore is returned by Random when no quote exists yet.
	ErrEmptyStore = errors.New("quote store is empty")
	// ErrNotFound is returned when no quote has the requested id or offset.
	ErrNotFound = errors.New("quote not found")
	// ErrInvalidQuote is returned when required quote fields are blank.
	ErrInvalidQuote = errors.New("invalid quote")
)

// Quote is one row of the tango_code table.
type Quote struct {
	ID        int64   `json:"id"`
	QuoteUA   string  `json:"quote_ua"`
	QuoteES   string  `json:"quote_es"`
	QuoteEN   string  `json:"quote_en"`
	Code      string  `json:"code"`
	CommentUA *string `json:"comment_ua"`
	CommentES *string `json:"comment_es"`
	CommentEN *string `json:"comment_en"`
}

// NewQuote carries the fields of a quote being created.
type NewQuote struct {
	QuoteUA   string  `json:"quote_ua" yaml:"quote_ua"`
	QuoteES   string  `json:"quote_es" yaml:"quote_es"`
	QuoteEN   string  `json:"quote_en" yaml:"quote_en"`
	Code      string  `json:"code" yaml:"code"`
	CommentUA *string `json:"comment_ua,omitempty" yaml:"comment_ua,omitempty"`
	CommentES *string `json:"comment_es,omitempty" yaml:"comment_es,omitempty"`
	CommentEN *string `json:"comment_en,omitempty" yaml:"comment_en,omitempty"`
}

// Validate reports ErrInvalidQuote when a required text is blank.
func (n NewQuote) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"quote_ua", n.QuoteUA},
		{"quote_es", n.QuoteES},
		{"quote_en", n.QuoteEN},
		{"code", n.Code},
	} {
		if strings.TrimSpace(f.value) == "" {
			return &FieldError{Field: f.name}
		}
	}
	return nil
}

// Patch lists the fields of a partial update. Nil texts are left untouched;
// a comment is written only when Set, and a Set comment with a nil Value
// clears the column.
type Patch struct {
	QuoteUA   *string   `json:"quote_ua"`
	QuoteES   *string   `json:"quote_es"`
	QuoteEN   *string   `json:"quote_en"`
	Code      *string   `json:"code"`
	CommentUA Clearable `json:"comment_ua"`
	CommentES Clearable `json:"comment_es"`
	CommentEN Clearable `json:"comment_en"`
}

// Clearable is an optional text that remembers whether it was present in the
// request, so an explicit JSON null can be told apart from an absent field.
type Clearable struct {
	Set   bool
	Value *string
}

// SetTo returns a Clearable that writes v.
func SetTo(v string) Clearable {
	return Clearable{Set: true, Value: &v}
}

// Cleared returns a Clearable that writes NULL.
func Cleared() Clearable {
	return Clearable{Set: true}
}

// UnmarshalJSON marks the field as present; null clears it.
func (c *Clearable) UnmarshalJSON(data []byte) error {
	c.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		c.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	c.Value = &v
	return nil
}

// Field is one column assignment of a Patch. A nil Value writes NULL.
type Field struct {
	Column string
	Value  *string
}

// Arg returns the value as a query argument.
func (f Field) Arg() any {
	if f.Value == nil {
		return nil
	}
	return *f.Value
}

// Fields returns the set fields in column order.
func (p Patch) Fields() []Field {
	var out []Field
	for _, f := range []struct {
		column string
		value  *string
	}{
		{"quote_ua", p.QuoteUA},
		{"quote_es", p.QuoteES},
		{"quote_en", p.QuoteEN},
		{"code", p.Code},
	} {
		if f.value != nil {
			v := *f.value
			out = append(out, Field{Column: f.column, Value: &v})
		}
	}
	for _, f := range []struct {
		column string
		value  Clearable
	}{
		{"comment_ua", p.CommentUA},
		{"comment_es", p.CommentES},
		{"comment_en", p.CommentEN},
	} {
		if f.value.Set {
			out = append(out, Field{Column: f.column, Value: copyText(f.value.Value)})
		}
	}
	return out
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Validate rejects blanking a required text.
func (p Patch) Validate() error {
	for _, f := range p.Fields() {
		if isRequired(f.Column) && (f.Value == nil || strings.TrimSpace(*f.Value) == "") {
			return &FieldError{Field: f.Column}
		}
	}
	return nil
}

// Apply returns q with the patch's fields overwritten.
func (p Patch) Apply(q Quote) Quote {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setOpt := func(dst **string, src Clearable) {
		if src.Set {
			*dst = copyText(src.Value)
		}
	}
	set(&q.QuoteUA, p.QuoteUA)
	set(&q.QuoteES, p.QuoteES)
	set(&q.QuoteEN, p.QuoteEN)
	set(&q.Code, p.Code)
	setOpt(&q.CommentUA, p.CommentUA)
	setOpt(&q.CommentES, p.CommentES)
	setOpt(&q.CommentEN, p.CommentEN)
	return q
}

func copyText(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func isRequired(column string) bool {
	switch column {
	case "quote_ua", "quote_es", "quote_en", "code":
		return true
	default:
		return false
	}
}

// FieldError names the field that failed validation.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return ErrInvalidQuote.Error() + ": " + e.Field + " is required"
}

// Unwrap lets errors.Is match ErrInvalidQuote.
func (e *FieldError) Unwrap() error {
	return ErrInvalidQuote
}

// Store persists quotes. Implementations return ErrNotFound for missing rows.
type Store interface {
	CountAll(ctx context.Context) (int, error)
	GetByOffset(ctx context.Context, offset int) (Quote, error)
	GetByID(ctx context.Context, id int64) (Quote, error)
	Insert(ctx context.Context, q NewQuote) (int64, error)
	UpdateFields(ctx context.Context, id int64, patch Patch) (Quote, error)
}
