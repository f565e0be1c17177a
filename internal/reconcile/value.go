// Package reconcile implements the merge engine: the outer join of usage
// and profile snapshots, payment status attachment, profit derivation and
// projection into the published column schema.
package reconcile

import "github.com/smallbiznis/referral/internal/config"

// Tag classifies why a value is missing or failed. Tags are rendered to
// the legacy sentinel strings only at the projection boundary, so the
// merge logic never string-compares against the constants table.
type Tag string

const (
	TagAPIError        Tag = "api_error"
	TagInvoiceNotFound Tag = "invoice_not_found"
	TagMissingUsage    Tag = "missing_usage"
	TagMissingProfile  Tag = "missing_profile"
	TagNull            Tag = "null"
)

type kind uint8

const (
	kindAbsent kind = iota
	kindNumber
	kindText
	kindError
)

// Value is a tagged union: a finite number, a text cell, an error tag, or
// absent. The zero Value is absent.
type Value struct {
	kind kind
	num  float64
	text string
	tag  Tag
}

func Number(v float64) Value { return Value{kind: kindNumber, num: v} }

func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: kindText, text: s}
}

func Tagged(t Tag) Value { return Value{kind: kindError, tag: t} }

func (v Value) IsAbsent() bool { return v.kind == kindAbsent }

func (v Value) IsError() bool { return v.kind == kindError }

// Number returns the numeric payload when the value is a finite number.
func (v Value) Number() (float64, bool) {
	if v.kind != kindNumber {
		return 0, false
	}
	return v.num, true
}

// Text returns the text payload when the value is text.
func (v Value) Text() (string, bool) {
	if v.kind != kindText {
		return "", false
	}
	return v.text, true
}

// Tag returns the error tag when the value marks a failure.
func (v Value) Tag() (Tag, bool) {
	if v.kind != kindError {
		return "", false
	}
	return v.tag, true
}

// Render converts a value to its external cell representation: numbers
// stay numeric, text passes through, tags become their sentinel string and
// absent becomes the given default.
func (v Value) Render(sentinels config.Sentinels, onAbsent string) any {
	switch v.kind {
	case kindNumber:
		return v.num
	case kindText:
		return v.text
	case kindError:
		return v.tag.Sentinel(sentinels)
	default:
		return onAbsent
	}
}

// Sentinel maps a tag to its legacy string.
func (t Tag) Sentinel(sentinels config.Sentinels) string {
	switch t {
	case TagAPIError:
		return sentinels.APIError
	case TagInvoiceNotFound:
		return sentinels.InvoiceNotFound
	case TagMissingUsage:
		return sentinels.NotFoundBilling
	case TagMissingProfile:
		return sentinels.NotFoundCustomer
	default:
		return sentinels.NullValue
	}
}
