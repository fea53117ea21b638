package segment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/segment"
)

var testFields = map[string]segment.FieldType{
	"gender":     segment.FieldText,
	"city":       segment.FieldText,
	"bio":        segment.FieldText,
	"age":        segment.FieldNumber,
	"score":      segment.FieldNumber,
	"birthday":   segment.FieldDate,
	"language":   segment.FieldSet,
	"last_login": segment.FieldDate,
}

func compile(t *testing.T, tree segment.Condition) segment.Predicate {
	t.Helper()
	p, err := segment.Compile(&tree, testFields)
	require.NoError(t, err)
	return p
}

func TestCompile_EmptyTreeMatchesAll(t *testing.T) {
	records := []map[string]any{
		{"gender": "male"},
		{"gender": "female"},
		{},
	}

	p, err := segment.Compile(nil, testFields)
	require.NoError(t, err)
	for _, r := range records {
		assert.True(t, p.Matches(r))
	}

	empty := segment.Group(segment.GroupAnd)
	empty.Conditions = []segment.Condition{}
	p, err = segment.Compile(&empty, testFields)
	require.NoError(t, err)
	for _, r := range records {
		assert.True(t, p.Matches(r))
	}
}

func TestCompile_TextOperators(t *testing.T) {
	tests := []struct {
		name   string
		leaf   segment.Condition
		record map[string]any
		want   bool
	}{
		{
			name:   "equals is case-insensitive",
			leaf:   segment.Leaf("city", segment.FieldText, segment.OpEquals, "Riyadh"),
			record: map[string]any{"city": "RIYADH"},
			want:   true,
		},
		{
			name:   "equals rejects different value",
			leaf:   segment.Leaf("city", segment.FieldText, segment.OpEquals, "Riyadh"),
			record: map[string]any{"city": "Jeddah"},
			want:   false,
		},
		{
			name:   "notEqual",
			leaf:   segment.Leaf("city", segment.FieldText, segment.OpNotEqual, "Riyadh"),
			record: map[string]any{"city": "Jeddah"},
			want:   true,
		},
		{
			name:   "contains",
			leaf:   segment.Leaf("bio", segment.FieldText, segment.OpContains, "engineer"),
			record: map[string]any{"bio": "Software Engineer at Acme"},
			want:   true,
		},
		{
			name:   "notContains",
			leaf:   segment.Leaf("bio", segment.FieldText, segment.OpNotContains, "doctor"),
			record: map[string]any{"bio": "Software Engineer"},
			want:   true,
		},
		{
			name:   "startsWith",
			leaf:   segment.Leaf("city", segment.FieldText, segment.OpStartsWith, "riy"),
			record: map[string]any{"city": "Riyadh"},
			want:   true,
		},
		{
			name:   "endsWith",
			leaf:   segment.Leaf("city", segment.FieldText, segment.OpEndsWith, "ADH"),
			record: map[string]any{"city": "Riyadh"},
			want:   true,
		},
		{
			name:   "blank matches missing field",
			leaf:   segment.Leaf("city", segment.FieldText, segment.OpBlank, nil),
			record: map[string]any{},
			want:   true,
		},
		{
			name:   "blank matches nil value",
			leaf:   segment.Leaf("city", segment.FieldText, segment.OpBlank, nil),
			record: map[string]any{"city": nil},
			want:   true,
		},
		{
			name:   "notBlank",
			leaf:   segment.Leaf("city", segment.FieldText, segment.OpNotBlank, nil),
			record: map[string]any{"city": "Riyadh"},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := compile(t, tt.leaf)
			assert.Equal(t, tt.want, p.Matches(tt.record))
		})
	}
}

func TestCompile_NumberOperators(t *testing.T) {
	tests := []struct {
		name   string
		leaf   segment.Condition
		record map[string]any
		want   bool
	}{
		{"equals", segment.Leaf("age", segment.FieldNumber, segment.OpEquals, 30), map[string]any{"age": 30}, true},
		{"equals accepts float record", segment.Leaf("age", segment.FieldNumber, segment.OpEquals, 30), map[string]any{"age": 30.0}, true},
		{"notEqual", segment.Leaf("age", segment.FieldNumber, segment.OpNotEqual, 30), map[string]any{"age": 31}, true},
		{"greaterThan strict", segment.Leaf("age", segment.FieldNumber, segment.OpGreaterThan, 30), map[string]any{"age": 30}, false},
		{"greaterThanOrEqual", segment.Leaf("age", segment.FieldNumber, segment.OpGreaterThanOrEqual, 30), map[string]any{"age": 30}, true},
		{"lessThan strict", segment.Leaf("age", segment.FieldNumber, segment.OpLessThan, 30), map[string]any{"age": 30}, false},
		{"lessThanOrEqual", segment.Leaf("age", segment.FieldNumber, segment.OpLessThanOrEqual, 30), map[string]any{"age": 30}, true},
		{"inRange inclusive lower", segment.RangeLeaf("age", segment.FieldNumber, 18, 30), map[string]any{"age": 18}, true},
		{"inRange inclusive upper", segment.RangeLeaf("age", segment.FieldNumber, 18, 30), map[string]any{"age": 30}, true},
		{"inRange outside", segment.RangeLeaf("age", segment.FieldNumber, 18, 30), map[string]any{"age": 31}, false},
		{"string filter parses", segment.Leaf("age", segment.FieldNumber, segment.OpEquals, "30"), map[string]any{"age": 30}, true},
		{"blank", segment.Leaf("age", segment.FieldNumber, segment.OpBlank, nil), map[string]any{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := compile(t, tt.leaf)
			assert.Equal(t, tt.want, p.Matches(tt.record))
		})
	}
}

func TestCompile_DateOperators(t *testing.T) {
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		leaf   segment.Condition
		record map[string]any
		want   bool
	}{
		{"equals", segment.Leaf("birthday", segment.FieldDate, segment.OpEquals, "2024-06-15"), map[string]any{"birthday": day}, true},
		{"notEqual", segment.Leaf("birthday", segment.FieldDate, segment.OpNotEqual, "2024-06-14"), map[string]any{"birthday": day}, true},
		// greaterThan/lessThan behave inclusively on dates.
		{"greaterThan includes boundary", segment.Leaf("birthday", segment.FieldDate, segment.OpGreaterThan, "2024-06-15"), map[string]any{"birthday": day}, true},
		{"lessThan includes boundary", segment.Leaf("birthday", segment.FieldDate, segment.OpLessThan, "2024-06-15"), map[string]any{"birthday": day}, true},
		{"greaterThan excludes earlier", segment.Leaf("birthday", segment.FieldDate, segment.OpGreaterThan, "2024-06-16"), map[string]any{"birthday": day}, false},
		{"inRange inclusive", segment.RangeLeaf("birthday", segment.FieldDate, "2024-06-15", "2024-06-20"), map[string]any{"birthday": day}, true},
		{"record string value parses", segment.Leaf("birthday", segment.FieldDate, segment.OpEquals, "2024-06-15"), map[string]any{"birthday": "2024-06-15"}, true},
		{"blank", segment.Leaf("birthday", segment.FieldDate, segment.OpBlank, nil), map[string]any{"birthday": nil}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := compile(t, tt.leaf)
			assert.Equal(t, tt.want, p.Matches(tt.record))
		})
	}
}

func TestCompile_SetOperator(t *testing.T) {
	leaf := segment.SetLeaf("language", "ar", "en")
	p := compile(t, leaf)
	assert.True(t, p.Matches(map[string]any{"language": "AR"}))
	assert.True(t, p.Matches(map[string]any{"language": "en"}))
	assert.False(t, p.Matches(map[string]any{"language": "fr"}))
	assert.False(t, p.Matches(map[string]any{}))

	t.Run("null entry widens to null values", func(t *testing.T) {
		p := compile(t, segment.SetLeaf("language", "ar", nil))
		assert.True(t, p.Matches(map[string]any{"language": "ar"}))
		assert.True(t, p.Matches(map[string]any{}))
		assert.False(t, p.Matches(map[string]any{"language": "fr"}))
	})

	t.Run("all-null values add no constraint", func(t *testing.T) {
		p := compile(t, segment.SetLeaf("language"))
		assert.True(t, p.Matches(map[string]any{"language": "anything"}))
	})
}

func TestCompile_UnknownFieldIsNoop(t *testing.T) {
	leaf := segment.Leaf("does_not_exist", segment.FieldText, segment.OpEquals, "x")
	p := compile(t, leaf)
	assert.True(t, p.Matches(map[string]any{"city": "Riyadh"}))
}

func TestCompile_MalformedLeaves(t *testing.T) {
	tests := []struct {
		name string
		tree segment.Condition
	}{
		{"bad date", segment.Leaf("birthday", segment.FieldDate, segment.OpEquals, "not-a-date")},
		{"bad number", segment.Leaf("age", segment.FieldNumber, segment.OpEquals, "abc")},
		{"unknown field type", segment.Leaf("city", segment.FieldType("geo"), segment.OpEquals, "x")},
		{"unknown text operator", segment.Leaf("city", segment.FieldText, "regex", "x")},
		{"unknown group operator", segment.Condition{Operator: "xor", Conditions: []segment.Condition{
			segment.Leaf("city", segment.FieldText, segment.OpEquals, "x"),
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := segment.Compile(&tt.tree, testFields)
			require.Error(t, err)
			assert.ErrorIs(t, err, segment.ErrInvalidCondition)
		})
	}
}

func TestCompile_GroupBooleanEquivalence(t *testing.T) {
	// {and: [A, {or: [B, C]}]} must behave as A AND (B OR C).
	tree := segment.Group(segment.GroupAnd,
		segment.Leaf("gender", segment.FieldText, segment.OpEquals, "male"),
		segment.Group(segment.GroupOr,
			segment.Leaf("city", segment.FieldText, segment.OpEquals, "Riyadh"),
			segment.Leaf("city", segment.FieldText, segment.OpEquals, "Jeddah"),
		),
	)
	p := compile(t, tree)

	assert.True(t, p.Matches(map[string]any{"gender": "male", "city": "Riyadh"}))
	assert.True(t, p.Matches(map[string]any{"gender": "male", "city": "Jeddah"}))
	assert.False(t, p.Matches(map[string]any{"gender": "male", "city": "Dammam"}))
	assert.False(t, p.Matches(map[string]any{"gender": "female", "city": "Riyadh"}))
}

func TestCompile_OrGroupJoinsSubsequentChildren(t *testing.T) {
	tree := segment.Group(segment.GroupOr,
		segment.Leaf("city", segment.FieldText, segment.OpEquals, "Riyadh"),
		segment.Leaf("city", segment.FieldText, segment.OpEquals, "Jeddah"),
		segment.Leaf("city", segment.FieldText, segment.OpEquals, "Dammam"),
	)
	p := compile(t, tree)

	for _, city := range []string{"Riyadh", "Jeddah", "Dammam"} {
		assert.True(t, p.Matches(map[string]any{"city": city}), city)
	}
	assert.False(t, p.Matches(map[string]any{"city": "Mecca"}))
}
