package segment

// GroupOperator joins the children of a condition group.
type GroupOperator string

const (
	GroupAnd GroupOperator = "and"
	GroupOr  GroupOperator = "or"
)

// FieldType selects how a leaf's filter value is interpreted and which
// operators are valid for it.
type FieldType string

const (
	FieldText   FieldType = "text"
	FieldNumber FieldType = "number"
	FieldDate   FieldType = "date"
	FieldSet    FieldType = "set"
)

// Leaf operator names. Which subset applies depends on the leaf's FieldType.
const (
	OpEquals             = "equals"
	OpNotEqual           = "notEqual"
	OpContains           = "contains"
	OpNotContains        = "notContains"
	OpStartsWith         = "startsWith"
	OpEndsWith           = "endsWith"
	OpGreaterThan        = "greaterThan"
	OpGreaterThanOrEqual = "greaterThanOrEqual"
	OpLessThan           = "lessThan"
	OpLessThanOrEqual    = "lessThanOrEqual"
	OpInRange            = "inRange"
	OpBlank              = "blank"
	OpNotBlank           = "notBlank"
)

// Condition is a node of a segment's rule tree: either a group joining its
// children with a boolean operator, or a leaf comparing a single field.
// The zero value is an empty tree and matches everything.
type Condition struct {
	// Group fields.
	Operator   GroupOperator `json:"operator,omitempty"`
	Conditions []Condition   `json:"conditions,omitempty"`

	// Leaf fields.
	Field      string    `json:"field,omitempty"`
	FilterType FieldType `json:"filterType,omitempty"`
	Type       string    `json:"type,omitempty"`
	Filter     any       `json:"filter,omitempty"`
	FilterTo   any       `json:"filterTo,omitempty"`
	Values     []any     `json:"values,omitempty"`
}

// IsGroup reports whether the node is a group rather than a leaf.
func (c *Condition) IsGroup() bool {
	return c.Operator != "" || c.Conditions != nil
}

// IsEmpty reports whether the node carries no constraints at all.
func (c *Condition) IsEmpty() bool {
	if c == nil {
		return true
	}
	return c.IsGroup() && len(c.Conditions) == 0
}

// Group builds a group node.
func Group(op GroupOperator, children ...Condition) Condition {
	return Condition{Operator: op, Conditions: children}
}

// Leaf builds a leaf node.
func Leaf(field string, ft FieldType, op string, filter any) Condition {
	return Condition{Field: field, FilterType: ft, Type: op, Filter: filter}
}

// RangeLeaf builds an inRange leaf with inclusive bounds.
func RangeLeaf(field string, ft FieldType, from, to any) Condition {
	return Condition{Field: field, FilterType: ft, Type: OpInRange, Filter: from, FilterTo: to}
}

// SetLeaf builds a set-membership leaf.
func SetLeaf(field string, values ...any) Condition {
	return Condition{Field: field, FilterType: FieldSet, Values: values}
}
