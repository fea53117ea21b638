package segment

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// BuildSQL renders a predicate into a Postgres WHERE fragment with
// positional arguments, starting at $startArg. Field names are sanitized as
// identifiers; values are always passed as arguments.
func BuildSQL(p Predicate, startArg int) (string, []any, error) {
	b := &sqlBuilder{next: startArg}
	clause, err := b.render(p)
	if err != nil {
		return "", nil, err
	}
	return clause, b.args, nil
}

type sqlBuilder struct {
	args []any
	next int
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	n := b.next
	b.next++
	return fmt.Sprintf("$%d", n)
}

func (b *sqlBuilder) render(p Predicate) (string, error) {
	switch node := p.(type) {
	case True:
		return "TRUE", nil
	case And:
		return b.binary(node.Left, node.Right, "AND")
	case Or:
		return b.binary(node.Left, node.Right, "OR")
	case Compare:
		return b.compare(node)
	case TextMatch:
		return b.textMatch(node)
	case Between:
		field := quoteIdent(node.Field)
		return fmt.Sprintf("%s BETWEEN %s AND %s", field, b.arg(node.From), b.arg(node.To)), nil
	case In:
		return b.in(node)
	case IsNull:
		return quoteIdent(node.Field) + " IS NULL", nil
	case NotNull:
		return quoteIdent(node.Field) + " IS NOT NULL", nil
	}
	return "", fmt.Errorf("segment: unsupported predicate node %T", p)
}

func (b *sqlBuilder) binary(left, right Predicate, op string) (string, error) {
	l, err := b.render(left)
	if err != nil {
		return "", err
	}
	r, err := b.render(right)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s)", l, op, r), nil
}

func (b *sqlBuilder) compare(node Compare) (string, error) {
	field := quoteIdent(node.Field)

	// Text comparisons fold case on both sides.
	if s, ok := node.Value.(string); ok {
		switch node.Op {
		case CmpEq:
			return fmt.Sprintf("LOWER(%s) = LOWER(%s)", field, b.arg(s)), nil
		case CmpNe:
			return fmt.Sprintf("LOWER(%s) <> LOWER(%s)", field, b.arg(s)), nil
		}
		return "", fmt.Errorf("segment: text compare does not support op %q", node.Op)
	}

	op, ok := sqlCompareOps[node.Op]
	if !ok {
		return "", fmt.Errorf("segment: unsupported compare op %q", node.Op)
	}
	return fmt.Sprintf("%s %s %s", field, op, b.arg(node.Value)), nil
}

func (b *sqlBuilder) textMatch(node TextMatch) (string, error) {
	field := quoteIdent(node.Field)
	pattern := escapeLike(node.Value)

	switch node.Kind {
	case TextContains:
		return fmt.Sprintf("%s ILIKE %s", field, b.arg("%"+pattern+"%")), nil
	case TextNotContains:
		return fmt.Sprintf("%s NOT ILIKE %s", field, b.arg("%"+pattern+"%")), nil
	case TextPrefix:
		return fmt.Sprintf("%s ILIKE %s", field, b.arg(pattern+"%")), nil
	case TextSuffix:
		return fmt.Sprintf("%s ILIKE %s", field, b.arg("%"+pattern)), nil
	}
	return "", fmt.Errorf("segment: unsupported text match kind %q", node.Kind)
}

func (b *sqlBuilder) in(node In) (string, error) {
	field := quoteIdent(node.Field)

	lowered := make([]string, len(node.Values))
	for i, v := range node.Values {
		lowered[i] = strings.ToLower(v)
	}

	clause := fmt.Sprintf("LOWER(%s) = ANY(%s)", field, b.arg(lowered))
	if node.IncludeNull {
		clause = fmt.Sprintf("(%s OR %s IS NULL)", clause, field)
	}
	return clause, nil
}

var sqlCompareOps = map[CompareOp]string{
	CmpEq:  "=",
	CmpNe:  "<>",
	CmpGt:  ">",
	CmpGte: ">=",
	CmpLt:  "<",
	CmpLte: "<=",
}

func quoteIdent(field string) string {
	return pgx.Identifier{field}.Sanitize()
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
