package segment

import (
	"fmt"
	"strconv"
	"time"
)

// dateFormats are tried in order when parsing date filter values.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Compile turns a condition tree into a Predicate over the given audience
// fields. A nil or empty tree compiles to True (the whole audience).
//
// Group semantics are preserved exactly as the original rule engine behaves:
// the first child of a group is always combined with AND relative to the
// accumulated predicate, regardless of the group's declared operator; every
// subsequent child is combined using the declared operator. Nested groups
// compile independently and join the parent as a single unit.
//
// A leaf referencing a field absent from fields contributes no constraint.
// A malformed leaf fails with ErrInvalidCondition.
func Compile(tree *Condition, fields map[string]FieldType) (Predicate, error) {
	if tree.IsEmpty() {
		return True{}, nil
	}
	if !tree.IsGroup() {
		return compileLeaf(tree, fields)
	}
	return compileGroup(True{}, tree, fields)
}

func compileGroup(base Predicate, g *Condition, fields map[string]FieldType) (Predicate, error) {
	if g.Operator != GroupAnd && g.Operator != GroupOr {
		return nil, fmt.Errorf("%w: unknown group operator %q", ErrInvalidCondition, g.Operator)
	}

	out := base
	for i := range g.Conditions {
		child := &g.Conditions[i]

		var p Predicate
		var err error
		if child.IsGroup() {
			p, err = compileGroup(True{}, child, fields)
		} else {
			p, err = compileLeaf(child, fields)
		}
		if err != nil {
			return nil, err
		}

		if i == 0 {
			out = conjoin(out, p)
			continue
		}
		switch g.Operator {
		case GroupAnd:
			out = conjoin(out, p)
		case GroupOr:
			out = Or{Left: out, Right: p}
		}
	}
	return out, nil
}

// conjoin ANDs two predicates, folding away True operands.
func conjoin(a, b Predicate) Predicate {
	if _, ok := a.(True); ok {
		return b
	}
	if _, ok := b.(True); ok {
		return a
	}
	return And{Left: a, Right: b}
}

func compileLeaf(leaf *Condition, fields map[string]FieldType) (Predicate, error) {
	// Unknown fields are a no-op rather than an error: segment definitions
	// outlive audience schema changes.
	if _, ok := fields[leaf.Field]; !ok {
		return True{}, nil
	}

	switch leaf.FilterType {
	case FieldText:
		return compileTextLeaf(leaf)
	case FieldNumber:
		return compileNumberLeaf(leaf)
	case FieldDate:
		return compileDateLeaf(leaf)
	case FieldSet:
		return compileSetLeaf(leaf), nil
	}
	return nil, fmt.Errorf("%w: unknown filter type %q for field %q", ErrInvalidCondition, leaf.FilterType, leaf.Field)
}

func compileTextLeaf(leaf *Condition) (Predicate, error) {
	switch leaf.Type {
	case OpBlank:
		return IsNull{Field: leaf.Field}, nil
	case OpNotBlank:
		return NotNull{Field: leaf.Field}, nil
	}

	value := stringValue(leaf.Filter)
	switch leaf.Type {
	case OpEquals:
		return Compare{Field: leaf.Field, Op: CmpEq, Value: value}, nil
	case OpNotEqual:
		return Compare{Field: leaf.Field, Op: CmpNe, Value: value}, nil
	case OpContains:
		return TextMatch{Field: leaf.Field, Kind: TextContains, Value: value}, nil
	case OpNotContains:
		return TextMatch{Field: leaf.Field, Kind: TextNotContains, Value: value}, nil
	case OpStartsWith:
		return TextMatch{Field: leaf.Field, Kind: TextPrefix, Value: value}, nil
	case OpEndsWith:
		return TextMatch{Field: leaf.Field, Kind: TextSuffix, Value: value}, nil
	}
	return nil, fmt.Errorf("%w: unknown text operator %q for field %q", ErrInvalidCondition, leaf.Type, leaf.Field)
}

func compileNumberLeaf(leaf *Condition) (Predicate, error) {
	switch leaf.Type {
	case OpBlank:
		return IsNull{Field: leaf.Field}, nil
	case OpNotBlank:
		return NotNull{Field: leaf.Field}, nil
	}

	value, err := numberValue(leaf.Filter)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidCondition, leaf.Field, err)
	}

	switch leaf.Type {
	case OpEquals:
		return Compare{Field: leaf.Field, Op: CmpEq, Value: value}, nil
	case OpNotEqual:
		return Compare{Field: leaf.Field, Op: CmpNe, Value: value}, nil
	case OpGreaterThan:
		return Compare{Field: leaf.Field, Op: CmpGt, Value: value}, nil
	case OpGreaterThanOrEqual:
		return Compare{Field: leaf.Field, Op: CmpGte, Value: value}, nil
	case OpLessThan:
		return Compare{Field: leaf.Field, Op: CmpLt, Value: value}, nil
	case OpLessThanOrEqual:
		return Compare{Field: leaf.Field, Op: CmpLte, Value: value}, nil
	case OpInRange:
		to, err := numberValue(leaf.FilterTo)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidCondition, leaf.Field, err)
		}
		return Between{Field: leaf.Field, From: value, To: to}, nil
	}
	return nil, fmt.Errorf("%w: unknown number operator %q for field %q", ErrInvalidCondition, leaf.Type, leaf.Field)
}

func compileDateLeaf(leaf *Condition) (Predicate, error) {
	switch leaf.Type {
	case OpBlank:
		return IsNull{Field: leaf.Field}, nil
	case OpNotBlank:
		return NotNull{Field: leaf.Field}, nil
	}

	value, err := dateValue(leaf.Filter)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidCondition, leaf.Field, err)
	}

	switch leaf.Type {
	case OpEquals:
		return Compare{Field: leaf.Field, Op: CmpEq, Value: value}, nil
	case OpNotEqual:
		return Compare{Field: leaf.Field, Op: CmpNe, Value: value}, nil
	case OpGreaterThan:
		// Date bound operators are inclusive, preserved from the original
		// rule engine. See the package docs before "fixing" this.
		return Compare{Field: leaf.Field, Op: CmpGte, Value: value}, nil
	case OpLessThan:
		return Compare{Field: leaf.Field, Op: CmpLte, Value: value}, nil
	case OpInRange:
		to, err := dateValue(leaf.FilterTo)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidCondition, leaf.Field, err)
		}
		return Between{Field: leaf.Field, From: value, To: to}, nil
	}
	return nil, fmt.Errorf("%w: unknown date operator %q for field %q", ErrInvalidCondition, leaf.Type, leaf.Field)
}

// compileSetLeaf never fails: a null entry widens the match to null field
// values, and a values list with nothing left after filtering nulls adds no
// constraint at all.
func compileSetLeaf(leaf *Condition) Predicate {
	var (
		values      []string
		includeNull bool
	)
	for _, v := range leaf.Values {
		if v == nil {
			includeNull = true
			continue
		}
		s := stringValue(v)
		if s == "" {
			includeNull = true
			continue
		}
		values = append(values, s)
	}

	if len(values) == 0 {
		if includeNull {
			return IsNull{Field: leaf.Field}
		}
		return True{}
	}
	return In{Field: leaf.Field, Values: values, IncludeNull: includeNull}
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func numberValue(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", n)
		}
		return parsed, nil
	}
	return 0, fmt.Errorf("invalid number value %v", v)
}

func dateValue(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return parseDate(t)
	}
	return time.Time{}, fmt.Errorf("invalid date value %v", v)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
