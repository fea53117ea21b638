package segment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/segment"
)

func TestBuildSQL(t *testing.T) {
	tests := []struct {
		name       string
		tree       segment.Condition
		wantClause string
		wantArgs   []any
	}{
		{
			name:       "text equals folds case",
			tree:       segment.Leaf("city", segment.FieldText, segment.OpEquals, "Riyadh"),
			wantClause: `LOWER("city") = LOWER($1)`,
			wantArgs:   []any{"Riyadh"},
		},
		{
			name:       "contains escapes like metacharacters",
			tree:       segment.Leaf("bio", segment.FieldText, segment.OpContains, "100%"),
			wantClause: `"bio" ILIKE $1`,
			wantArgs:   []any{`%100\%%`},
		},
		{
			name:       "number range",
			tree:       segment.RangeLeaf("age", segment.FieldNumber, 18, 30),
			wantClause: `"age" BETWEEN $1 AND $2`,
			wantArgs:   []any{float64(18), float64(30)},
		},
		{
			name:       "blank",
			tree:       segment.Leaf("city", segment.FieldText, segment.OpBlank, nil),
			wantClause: `"city" IS NULL`,
			wantArgs:   nil,
		},
		{
			name: "group nests with parentheses",
			tree: segment.Group(segment.GroupAnd,
				segment.Leaf("gender", segment.FieldText, segment.OpEquals, "male"),
				segment.Group(segment.GroupOr,
					segment.Leaf("city", segment.FieldText, segment.OpEquals, "Riyadh"),
					segment.Leaf("city", segment.FieldText, segment.OpEquals, "Jeddah"),
				),
			),
			wantClause: `(LOWER("gender") = LOWER($1) AND (LOWER("city") = LOWER($2) OR LOWER("city") = LOWER($3)))`,
			wantArgs:   []any{"male", "Riyadh", "Jeddah"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := segment.Compile(&tt.tree, testFields)
			require.NoError(t, err)

			clause, args, err := segment.BuildSQL(p, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantClause, clause)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildSQL_SetMembership(t *testing.T) {
	tree := segment.SetLeaf("language", "AR", "en", nil)
	p, err := segment.Compile(&tree, testFields)
	require.NoError(t, err)

	clause, args, err := segment.BuildSQL(p, 1)
	require.NoError(t, err)
	assert.Equal(t, `(LOWER("language") = ANY($1) OR "language" IS NULL)`, clause)
	require.Len(t, args, 1)
	assert.Equal(t, []string{"ar", "en"}, args[0])
}
