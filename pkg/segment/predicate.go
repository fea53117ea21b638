package segment

import (
	"strings"
	"time"
)

// Predicate is the storage-agnostic compilation target for condition trees.
// It can be evaluated in memory via Matches, or walked by a storage adapter
// to produce a concrete query (see the pg adapter in this package).
type Predicate interface {
	// Matches evaluates the predicate against a single audience record.
	// A missing or nil field value is treated as null.
	Matches(record map[string]any) bool
}

// CompareOp is the comparison operator of a Compare node.
type CompareOp string

const (
	CmpEq  CompareOp = "eq"
	CmpNe  CompareOp = "ne"
	CmpGt  CompareOp = "gt"
	CmpGte CompareOp = "gte"
	CmpLt  CompareOp = "lt"
	CmpLte CompareOp = "lte"
)

// TextMatchKind is the substring matching mode of a TextMatch node.
type TextMatchKind string

const (
	TextContains    TextMatchKind = "contains"
	TextNotContains TextMatchKind = "notContains"
	TextPrefix      TextMatchKind = "prefix"
	TextSuffix      TextMatchKind = "suffix"
)

// True matches every record. Compiling an empty tree yields True.
type True struct{}

func (True) Matches(map[string]any) bool { return true }

// And matches when both operands match.
type And struct {
	Left, Right Predicate
}

func (p And) Matches(r map[string]any) bool {
	return p.Left.Matches(r) && p.Right.Matches(r)
}

// Or matches when either operand matches.
type Or struct {
	Left, Right Predicate
}

func (p Or) Matches(r map[string]any) bool {
	return p.Left.Matches(r) || p.Right.Matches(r)
}

// Compare matches a single field against a typed value. Value is a string
// (text fields, compared case-insensitively), float64 (number fields) or
// time.Time (date fields).
type Compare struct {
	Field string
	Op    CompareOp
	Value any
}

func (p Compare) Matches(r map[string]any) bool {
	v, ok := fieldValue(r, p.Field)
	if !ok {
		return false
	}

	switch want := p.Value.(type) {
	case string:
		s, ok := v.(string)
		if !ok {
			return false
		}
		eq := strings.EqualFold(s, want)
		switch p.Op {
		case CmpEq:
			return eq
		case CmpNe:
			return !eq
		}
		return false
	case float64:
		n, ok := toFloat(v)
		if !ok {
			return false
		}
		return compareOrdered(n, want, p.Op)
	case time.Time:
		t, ok := toTime(v)
		if !ok {
			return false
		}
		switch p.Op {
		case CmpEq:
			return t.Equal(want)
		case CmpNe:
			return !t.Equal(want)
		case CmpGt:
			return t.After(want)
		case CmpGte:
			return !t.Before(want)
		case CmpLt:
			return t.Before(want)
		case CmpLte:
			return !t.After(want)
		}
		return false
	}
	return false
}

// TextMatch matches a text field by substring, prefix or suffix,
// case-insensitively.
type TextMatch struct {
	Field string
	Kind  TextMatchKind
	Value string
}

func (p TextMatch) Matches(r map[string]any) bool {
	v, ok := fieldValue(r, p.Field)
	if !ok {
		// Null never contains anything, but it also never "not contains"
		// positively matching the original behavior of SQL NOT LIKE.
		return false
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.ToLower(s)
	want := strings.ToLower(p.Value)
	switch p.Kind {
	case TextContains:
		return strings.Contains(s, want)
	case TextNotContains:
		return !strings.Contains(s, want)
	case TextPrefix:
		return strings.HasPrefix(s, want)
	case TextSuffix:
		return strings.HasSuffix(s, want)
	}
	return false
}

// Between matches a field within inclusive bounds. From and To carry the
// same types as Compare.Value.
type Between struct {
	Field    string
	From, To any
}

func (p Between) Matches(r map[string]any) bool {
	v, ok := fieldValue(r, p.Field)
	if !ok {
		return false
	}
	switch from := p.From.(type) {
	case float64:
		to, _ := p.To.(float64)
		n, ok := toFloat(v)
		if !ok {
			return false
		}
		return n >= from && n <= to
	case time.Time:
		to, _ := p.To.(time.Time)
		t, ok := toTime(v)
		if !ok {
			return false
		}
		return !t.Before(from) && !t.After(to)
	}
	return false
}

// In matches set membership. When IncludeNull is set a null field value also
// matches, mirroring a null entry in the original values list.
type In struct {
	Field       string
	Values      []string
	IncludeNull bool
}

func (p In) Matches(r map[string]any) bool {
	v, ok := fieldValue(r, p.Field)
	if !ok {
		return p.IncludeNull
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, want := range p.Values {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}

// IsNull matches records whose field is missing or nil.
type IsNull struct {
	Field string
}

func (p IsNull) Matches(r map[string]any) bool {
	_, ok := fieldValue(r, p.Field)
	return !ok
}

// NotNull matches records whose field is present and non-nil.
type NotNull struct {
	Field string
}

func (p NotNull) Matches(r map[string]any) bool {
	_, ok := fieldValue(r, p.Field)
	return ok
}

// fieldValue reads a record field, folding missing and nil into "no value".
func fieldValue(r map[string]any, field string) (any, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func compareOrdered(got, want float64, op CompareOp) bool {
	switch op {
	case CmpEq:
		return got == want
	case CmpNe:
		return got != want
	case CmpGt:
		return got > want
	case CmpGte:
		return got >= want
	case CmpLt:
		return got < want
	case CmpLte:
		return got <= want
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// toTime accepts native times and the string formats accepted at compile
// time. Unparsable record values are treated as no-value rather than
// failing the whole evaluation; compile-time strictness applies only to
// the filter side.
func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := parseDate(t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}
